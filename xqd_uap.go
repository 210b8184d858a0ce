package edgewasm

// xqdUapParse implements fastly_uap.parse: reads a UA string from guest memory, parses
// it, and writes each of (family, major, minor, patch) to its own (addr,maxlen) slot,
// truncating and reporting actual bytes written the same way header accessors do.
func (i *Instance) xqdUapParse(
	addr, size int32,
	familyOut, familyMaxLen, familyNWrittenOut int32,
	majorOut, majorMaxLen, majorNWrittenOut int32,
	minorOut, minorMaxLen, minorNWrittenOut int32,
	patchOut, patchMaxLen, patchNWrittenOut int32,
) int32 {
	uastring := i.memory.String(addr, size)
	ua := i.uaparser(uastring)

	writeField := func(value string, out, maxlen, nwrittenOut int32) {
		n := i.memory.WriteAt([]byte(value)[:min(len(value), int(maxlen))], out)
		i.memory.PutUint32(uint32(n), nwrittenOut)
	}

	writeField(ua.Family, familyOut, familyMaxLen, familyNWrittenOut)
	writeField(ua.Major, majorOut, majorMaxLen, majorNWrittenOut)
	writeField(ua.Minor, minorOut, minorMaxLen, minorNWrittenOut)
	writeField(ua.Patch, patchOut, patchMaxLen, patchNWrittenOut)

	return statusOK.i32()
}
