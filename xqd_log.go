package edgewasm

// xqdLogEndpointGet implements log.endpoint_get: always appends and succeeds.
func (i *Instance) xqdLogEndpointGet(nameAddr, nameSize, hOut int32) int32 {
	name := i.memory.String(nameAddr, nameSize)
	handle := i.openEndpoint(name)
	i.memory.PutUint32(uint32(handle), hOut)
	return statusOK.i32()
}

// xqdLogWrite implements log.write: print the message through the endpoint and emit
// bytes written.
func (i *Instance) xqdLogWrite(h, msgAddr, msgSize, nwrittenOut int32) int32 {
	w := i.getEndpoint(h)
	if w == nil {
		return statusBadF.i32()
	}

	msg := i.memory.Data()[msgAddr : msgAddr+msgSize]
	n, err := w.Write(msg)
	if err != nil {
		panic(err)
	}

	i.memory.PutUint32(uint32(n), nwrittenOut)
	return statusOK.i32()
}
