package edgewasm

import "net/http"

func (i *Instance) xqdRespNew(hOut int32) int32 {
	handle, _ := i.responses.New()
	i.memory.PutUint32(uint32(handle), hOut)
	return statusOK.i32()
}

func (i *Instance) xqdRespStatusGet(h, out int32) int32 {
	r := i.responses.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	i.memory.PutUint32(uint32(r.StatusCode), out)
	return statusOK.i32()
}

func (i *Instance) xqdRespStatusSet(h, code int32) int32 {
	r := i.responses.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	if code < 100 || code > 599 {
		return statusHTTPParse.i32()
	}
	r.StatusCode = int(code)
	return statusOK.i32()
}

func (i *Instance) xqdRespVersionGet(h, out int32) int32 {
	r := i.responses.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	i.memory.PutUint32(uint32(r.version), out)
	return statusOK.i32()
}

func (i *Instance) xqdRespVersionSet(h, version int32) int32 {
	r := i.responses.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	if !validHTTPVersion(version) {
		panic("http_resp.version_set: unknown http version")
	}
	r.version = version
	return statusOK.i32()
}

func (i *Instance) xqdRespHeaderNamesGet(h, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
	r := i.responses.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	return cursorEnumerate(i.memory, sortedHeaderNames(r.Header), addr, maxlen, cursor, cursorOut, nwrittenOut)
}

func (i *Instance) xqdRespHeaderValuesGet(h, nameAddr, nameSize, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
	r := i.responses.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	name := i.memory.String(nameAddr, nameSize)
	return cursorEnumerate(i.memory, sortedHeaderValues(r.Header, name), addr, maxlen, cursor, cursorOut, nwrittenOut)
}

func (i *Instance) xqdRespHeaderValuesSet(h, nameAddr, nameSize, valsAddr, valsSize int32) int32 {
	r := i.responses.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	name := i.memory.String(nameAddr, nameSize)
	value := i.memory.String(valsAddr, valsSize-1)
	if !validHeaderName(name) || !validHeaderValue(value) {
		panic("http_resp.header_values_set: invalid header name or value")
	}
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Add(name, value)
	return statusOK.i32()
}

// xqdRespSendDownstream implements http_resp.send_downstream. Streaming isn't
// implemented, so a nonzero stream flag returns UNSUPPORTED rather than installing
// anything. Otherwise the response-parts and body become the Session's final response,
// which the Lifecycle Driver writes out after _start returns. respH and bodyH are
// consumed by the call and removed from their tables, matching the one-shot semantics
// of the other terminal handle consumer, http_req.send.
func (i *Instance) xqdRespSendDownstream(respH, bodyH, stream int32) int32 {
	if stream != 0 {
		return statusUnsupported.i32()
	}

	r := i.responses.Get(respH)
	b := i.bodies.Get(bodyH)
	if r == nil || b == nil {
		return statusBadF.i32()
	}

	i.finalResponse = r
	i.finalBody = b

	i.responses.Remove(respH)
	i.bodies.Remove(bodyH)
	return statusOK.i32()
}

// xqdRespHeaderInsert, xqdRespHeaderRemove, and xqdRespHeaderAppend are not implemented
// by the core; each returns UNSUPPORTED.
func (i *Instance) xqdRespHeaderInsert(h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
	return statusUnsupported.i32()
}

func (i *Instance) xqdRespHeaderRemove(h, nameAddr, nameSize int32) int32 {
	return statusUnsupported.i32()
}

func (i *Instance) xqdRespHeaderAppend(h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
	return statusUnsupported.i32()
}
