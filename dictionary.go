package edgewasm

// LookupFunc retrieves a value by key from a dictionary. Returns the empty string if
// the key is not found.
type LookupFunc func(key string) string

// namedDictionary is a host-configured dictionary available to be opened by name.
type namedDictionary struct {
	name string
	get  LookupFunc
}

// dictionarySnapshot is the session-scoped, immutable clone of a dictionary created each
// time the guest opens it. Opening the same name twice in one session produces two
// independent snapshots with two independent handles, matching the Data Model's vector
// of Dictionary snapshots.
type dictionarySnapshot struct {
	get LookupFunc
}

// openDictionary resolves name against the host-configured table; on a match it appends
// a snapshot to the session vector and returns its handle. No match returns handleInvalid.
func (i *Instance) openDictionary(name string) int32 {
	for _, d := range i.dictionaryConfig {
		if d.name == name {
			i.dictionaries = append(i.dictionaries, dictionarySnapshot{get: d.get})
			return int32(len(i.dictionaries) - 1)
		}
	}
	return handleInvalid
}

// getDictionary retrieves a session snapshot by handle, or nil if the handle is invalid.
func (i *Instance) getDictionary(handle int32) *dictionarySnapshot {
	if handle < 0 || int(handle) >= len(i.dictionaries) {
		return nil
	}
	return &i.dictionaries[handle]
}
