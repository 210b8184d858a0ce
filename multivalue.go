package edgewasm

// cursorDone is written to a cursor out-slot once enumeration has no more items.
const cursorDone int32 = -1

// cursorEnumerate implements the cursor-enumeration shape shared by header_names_get,
// header_values_get, and original_header_names_get: values is assumed already sorted by
// the caller. If cursor is out of range, nwritten=0 and cursorOut=cursorDone are written
// and the call reports OK (enumeration simply stops; this is not an error). Otherwise the
// value at cursor is NUL-terminated and written to (addr,maxlen), truncating if the value
// plus its NUL doesn't fit, and cursorOut is advanced (or set to cursorDone if that was
// the last item).
func cursorEnumerate(memory *Memory, values []string, addr, maxlen, cursor, cursorOutAddr, nwrittenOutAddr int32) int32 {
	if cursor < 0 || int(cursor) >= len(values) {
		memory.PutUint32(0, nwrittenOutAddr)
		memory.PutInt32(cursorDone, cursorOutAddr)
		return statusOK.i32()
	}

	value := append([]byte(values[cursor]), 0)
	n := int32(memory.WriteAt(value[:min(len(value), int(maxlen))], addr))
	memory.PutUint32(uint32(n), nwrittenOutAddr)

	next := cursor + 1
	if int(next) >= len(values) {
		memory.PutInt32(cursorDone, cursorOutAddr)
	} else {
		memory.PutInt32(next, cursorOutAddr)
	}

	return statusOK.i32()
}
