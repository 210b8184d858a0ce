package edgewasm

// xqdBodyNew implements http_body.new: append an empty body, emit its index.
func (i *Instance) xqdBodyNew(hOut int32) int32 {
	handle, _ := i.bodies.NewBuffer()
	i.memory.PutUint32(uint32(handle), hOut)
	return statusOK.i32()
}

// xqdBodyWrite implements http_body.write: read bytes from guest memory and append them
// to the body buffer. endFlag is advisory (no streaming) and is ignored.
func (i *Instance) xqdBodyWrite(h, addr, size, endFlag, nwrittenOut int32) int32 {
	b := i.bodies.Get(h)
	if b == nil {
		return statusBadF.i32()
	}

	n, err := b.Write(i.memory.Data()[addr : addr+size])
	if err != nil {
		panic(err)
	}

	i.memory.PutUint32(uint32(n), nwrittenOut)
	return statusOK.i32()
}

// xqdBodyRead implements http_body.read: write from the body buffer to guest memory.
func (i *Instance) xqdBodyRead(h, buf, bufLen, nreadOut int32) int32 {
	b := i.bodies.Get(h)
	if b == nil {
		return statusBadF.i32()
	}

	dst := make([]byte, bufLen)
	n, err := b.Read(dst)
	if err != nil && n == 0 {
		i.memory.PutUint32(0, nreadOut)
		return statusOK.i32()
	}

	i.memory.WriteAt(dst[:n], buf)
	i.memory.PutUint32(uint32(n), nreadOut)
	return statusOK.i32()
}

// xqdBodyAppend implements http_body.append: concatenate src into dst.
func (i *Instance) xqdBodyAppend(dstH, srcH int32) int32 {
	dst := i.bodies.Get(dstH)
	src := i.bodies.Get(srcH)
	if dst == nil || src == nil {
		return statusBadF.i32()
	}

	if err := dst.Append(src); err != nil {
		panic(err)
	}
	return statusOK.i32()
}

// xqdBodyClose implements http_body.close: bodies live for the session, so this is a
// stateless no-op that always succeeds.
func (i *Instance) xqdBodyClose(h int32) int32 {
	return statusOK.i32()
}
