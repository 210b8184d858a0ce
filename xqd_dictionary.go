package edgewasm

// xqdDictionaryOpen implements dictionary.open. A match appends a clone to the session
// table and writes its index; no match returns INVAL without writing anything.
func (i *Instance) xqdDictionaryOpen(nameAddr, nameSize, hOut int32) int32 {
	name := i.memory.String(nameAddr, nameSize)

	handle := i.openDictionary(name)
	if handle == handleInvalid {
		return statusInvalid.i32()
	}

	i.memory.PutUint32(uint32(handle), hOut)
	return statusOK.i32()
}

// xqdDictionaryGet implements dictionary.get. A bad handle is BADF; a missing key
// writes nwritten=0 and still reports OK.
func (i *Instance) xqdDictionaryGet(h, keyAddr, keySize, addr, maxlen, nwrittenOut int32) int32 {
	dict := i.getDictionary(h)
	if dict == nil {
		return statusBadF.i32()
	}

	key := i.memory.String(keyAddr, keySize)
	value := dict.get(key)
	if value == "" {
		i.memory.PutUint32(0, nwrittenOut)
		return statusOK.i32()
	}

	n := i.memory.WriteAt([]byte(value)[:min(len(value), int(maxlen))], addr)
	i.memory.PutUint32(uint32(n), nwrittenOut)
	return statusOK.i32()
}
