package edgewasm

import (
	"bytes"
	"net/http"
	"net/url"
)

// xqdReqBodyDownstreamGet implements http_req.body_downstream_get: a one-shot consume of
// the downstream request. Calling it a second time violates a precondition the ABI has
// no status code for, so it traps. The request-parts and body handles are forced to be
// numerically equal by allocating both from the same shared append point rather than two
// independent table lengths that would only coincidentally agree.
func (i *Instance) xqdReqBodyDownstreamGet(reqOut, bodyOut int32) int32 {
	if i.dsConsumed {
		panic("http_req.body_downstream_get: downstream request already consumed")
	}
	i.dsConsumed = true

	handle := i.shareHandle()

	rh := &RequestHandle{Request: i.dsRequest, version: versionHTTP11}
	i.requests.setAt(handle, rh)

	bh := &BodyHandle{buf: new(bytes.Buffer), reader: i.dsRequest.Body}
	i.bodies.setAt(handle, bh)

	i.memory.PutUint32(uint32(handle), reqOut)
	i.memory.PutUint32(uint32(handle), bodyOut)
	return statusOK.i32()
}

// xqdReqNew implements http_req.new.
func (i *Instance) xqdReqNew(hOut int32) int32 {
	handle, _ := i.requests.New()
	i.memory.PutUint32(uint32(handle), hOut)
	return statusOK.i32()
}

func (i *Instance) xqdReqMethodGet(h, addr, maxlen, nwrittenOut int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	n := i.memory.WriteAt([]byte(r.Method)[:min(len(r.Method), int(maxlen))], addr)
	i.memory.PutUint32(uint32(n), nwrittenOut)
	return statusOK.i32()
}

func (i *Instance) xqdReqMethodSet(h, addr, size int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	method := i.memory.String(addr, size)
	if !validHTTPMethod(method) {
		return statusHTTPParse.i32()
	}
	r.Method = method
	return statusOK.i32()
}

func (i *Instance) xqdReqURIGet(h, addr, maxlen, nwrittenOut int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	uri := r.URL.String()
	n := i.memory.WriteAt([]byte(uri)[:min(len(uri), int(maxlen))], addr)
	i.memory.PutUint32(uint32(n), nwrittenOut)
	return statusOK.i32()
}

func (i *Instance) xqdReqURISet(h, addr, size int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	u, err := url.Parse(i.memory.String(addr, size))
	if err != nil {
		return statusHTTPParse.i32()
	}
	r.URL = u
	return statusOK.i32()
}

func (i *Instance) xqdReqVersionGet(h, out int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	i.memory.PutUint32(uint32(r.version), out)
	return statusOK.i32()
}

func (i *Instance) xqdReqVersionSet(h, version int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	if !validHTTPVersion(version) {
		panic("http_req.version_set: unknown http version")
	}
	r.version = version
	return statusOK.i32()
}

func (i *Instance) xqdReqHeaderNamesGet(h, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	return cursorEnumerate(i.memory, sortedHeaderNames(r.Header), addr, maxlen, cursor, cursorOut, nwrittenOut)
}

func (i *Instance) xqdReqHeaderValuesGet(h, nameAddr, nameSize, addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	name := i.memory.String(nameAddr, nameSize)
	return cursorEnumerate(i.memory, sortedHeaderValues(r.Header, name), addr, maxlen, cursor, cursorOut, nwrittenOut)
}

func (i *Instance) xqdReqHeaderValuesSet(h, nameAddr, nameSize, valsAddr, valsSize int32) int32 {
	r := i.requests.Get(h)
	if r == nil {
		return statusBadF.i32()
	}
	name := i.memory.String(nameAddr, nameSize)
	value := i.memory.String(valsAddr, valsSize-1)
	if !validHeaderName(name) || !validHeaderValue(value) {
		panic("http_req.header_values_set: invalid header name or value")
	}
	r.Header.Add(name, value)
	return statusOK.i32()
}

func (i *Instance) xqdReqOriginalHeaderCount(out int32) int32 {
	i.memory.PutUint32(uint32(len(i.dsHeaderNames)), out)
	return statusOK.i32()
}

func (i *Instance) xqdReqOriginalHeaderNamesGet(addr, maxlen, cursor, cursorOut, nwrittenOut int32) int32 {
	names := append([]string(nil), i.dsHeaderNames...)
	return cursorEnumerate(i.memory, names, addr, maxlen, cursor, cursorOut, nwrittenOut)
}

func (i *Instance) xqdReqDownstreamClientIPAddr(addr, nwrittenOut int32) int32 {
	ip := i.downstreamClientIP()
	if ip == nil {
		i.memory.PutUint32(0, nwrittenOut)
		return statusOK.i32()
	}
	if v4 := ip.To4(); v4 != nil {
		i.memory.WriteAt(v4, addr)
		i.memory.PutUint32(4, nwrittenOut)
	} else {
		i.memory.WriteAt(ip.To16(), addr)
		i.memory.PutUint32(16, nwrittenOut)
	}
	return statusOK.i32()
}

// xqdReqSend implements http_req.send: dispatch via the Backend Dispatcher, installing
// the response-parts and body at freshly appended handles. A dispatcher error traps, but
// dispatch never returns one: a backend that fails to reach its upstream answers with its
// own HTTP response (httputil.ReverseProxy answers 502), which the guest receives like any
// other response rather than as a trap. reqH and bodyH are
// consumed by the call and removed from their tables, so a later op on either reports
// bad-handle rather than silently reusing the sent request.
func (i *Instance) xqdReqSend(reqH, bodyH, backendAddr, backendLen, respOut, respBodyOut int32) int32 {
	r := i.requests.Get(reqH)
	b := i.bodies.Get(bodyH)
	if r == nil || b == nil {
		return statusBadF.i32()
	}

	backend := i.memory.String(backendAddr, backendLen)

	req := r.Request.Clone(r.Context())
	req.Body = b

	resp, err := i.dispatch(backend, req)
	if err != nil {
		panic(err)
	}

	i.requests.Remove(reqH)
	i.bodies.Remove(bodyH)

	respHandle, rh := i.responses.New()
	rh.Response = resp

	bodyHandle, _ := i.bodies.NewReader(resp.Body)

	i.memory.PutUint32(uint32(respHandle), respOut)
	i.memory.PutUint32(uint32(bodyHandle), respBodyOut)
	return statusOK.i32()
}

// xqdReqCacheOverrideSet and xqdReqCacheOverrideV2Set are stateless no-ops: there is no caching in
// the core, so any tag/ttl/stale-while-revalidate value is accepted and discarded.
func (i *Instance) xqdReqCacheOverrideSet(h, tag, ttl, swr int32) int32 {
	return statusOK.i32()
}

func (i *Instance) xqdReqCacheOverrideV2Set(h, tag, ttl, swr, skAddr, skLen int32) int32 {
	return statusOK.i32()
}

// xqdReqHeaderInsert, xqdReqHeaderRemove, xqdReqHeaderAppend, and xqdReqHeaderValueGet
// are not implemented by the core; each returns UNSUPPORTED.
func (i *Instance) xqdReqHeaderInsert(h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
	return statusUnsupported.i32()
}

func (i *Instance) xqdReqHeaderRemove(h, nameAddr, nameSize int32) int32 {
	return statusUnsupported.i32()
}

func (i *Instance) xqdReqHeaderAppend(h, nameAddr, nameSize, valueAddr, valueSize int32) int32 {
	return statusUnsupported.i32()
}

func (i *Instance) xqdReqHeaderValueGet(h, nameAddr, nameSize, addr, maxlen, nwrittenOut int32) int32 {
	return statusUnsupported.i32()
}

func validHTTPMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
