package edgewasm

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
)

// RequestHandle is an http.Request with the extra metadata the ABI tracks separately
// from the stdlib type, notably the HTTP version (net/http doesn't expose 0.9/1.x/2/3
// as a settable enum).
type RequestHandle struct {
	*http.Request
	version int32
}

// RequestHandles is an append-only vector of RequestHandle with bounds-checked access.
// The handle emitted to the guest is always the index at the moment of append.
type RequestHandles struct {
	handles []*RequestHandle
}

func (rhs *RequestHandles) Get(id int32) *RequestHandle {
	if id < 0 || int(id) >= len(rhs.handles) {
		return nil
	}
	return rhs.handles[id]
}

// New appends a blank request-parts record and returns its handle.
func (rhs *RequestHandles) New() (int32, *RequestHandle) {
	u, _ := url.Parse("/")
	rh := &RequestHandle{
		Request: &http.Request{
			Method: http.MethodGet,
			URL:    u,
			Header: http.Header{},
		},
		version: versionHTTP11,
	}
	rhs.handles = append(rhs.handles, rh)
	return int32(len(rhs.handles) - 1), rh
}

// ResponseHandle is an http.Response with the same version-tracking addition as
// RequestHandle, plus the originating backend's remote address.
type ResponseHandle struct {
	*http.Response
	RemoteAddr string
	version    int32
}

type ResponseHandles struct {
	handles []*ResponseHandle
}

func (rhs *ResponseHandles) Get(id int32) *ResponseHandle {
	if id < 0 || int(id) >= len(rhs.handles) {
		return nil
	}
	return rhs.handles[id]
}

// New appends a blank response-parts record (status 200) and returns its handle.
func (rhs *ResponseHandles) New() (int32, *ResponseHandle) {
	rh := &ResponseHandle{
		Response: &http.Response{StatusCode: http.StatusOK, Header: http.Header{}},
		version:  versionHTTP11,
	}
	rhs.handles = append(rhs.handles, rh)
	return int32(len(rhs.handles) - 1), rh
}

// BodyHandle is a growable byte buffer. Bodies connected to an existing request or
// response (the downstream request, or a backend's response) wrap that body's reader
// instead of a buffer; everything else is buffer-backed.
type BodyHandle struct {
	buf    *bytes.Buffer
	reader io.ReadCloser
}

func (b *BodyHandle) Read(p []byte) (int, error) {
	if b.reader != nil {
		return b.reader.Read(p)
	}
	return b.buf.Read(p)
}

// Close implements io.Closer so a BodyHandle can stand in directly as an http.Request's
// or http.Response's Body.
func (b *BodyHandle) Close() error {
	return nil
}

func (b *BodyHandle) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// Append concatenates src's remaining bytes onto b. src keeps its own contents usable
// afterwards — the ABI only requires copy semantics, not invalidation.
func (b *BodyHandle) Append(src *BodyHandle) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	_, err = b.buf.Write(data)
	src.reader = nil
	src.buf = bytes.NewBuffer(data)
	return err
}

type BodyHandles struct {
	handles []*BodyHandle
}

func (bhs *BodyHandles) Get(id int32) *BodyHandle {
	if id < 0 || int(id) >= len(bhs.handles) {
		return nil
	}
	return bhs.handles[id]
}

// NewBuffer appends an empty, buffer-backed body and returns its handle.
func (bhs *BodyHandles) NewBuffer() (int32, *BodyHandle) {
	bh := &BodyHandle{buf: new(bytes.Buffer)}
	bhs.handles = append(bhs.handles, bh)
	return int32(len(bhs.handles) - 1), bh
}

// NewReader appends a body wrapping an existing ReadCloser — used for the downstream
// request body and for backend response bodies.
func (bhs *BodyHandles) NewReader(rdr io.ReadCloser) (int32, *BodyHandle) {
	bh := &BodyHandle{buf: new(bytes.Buffer), reader: rdr}
	bhs.handles = append(bhs.handles, bh)
	return int32(len(bhs.handles) - 1), bh
}

func (rhs *RequestHandles) setAt(handle int32, rh *RequestHandle) {
	rhs.handles[handle] = rh
}

func (bhs *BodyHandles) setAt(handle int32, bh *BodyHandle) {
	bhs.handles[handle] = bh
}

// Remove tombstones handle: the index stays reserved (so later handles keep their
// numbers and the table never shrinks) but Get on it now reports bad-handle, matching
// the ABI's one-shot consume semantics for send.
func (rhs *RequestHandles) Remove(handle int32) {
	if handle >= 0 && int(handle) < len(rhs.handles) {
		rhs.handles[handle] = nil
	}
}

func (rhs *ResponseHandles) Remove(handle int32) {
	if handle >= 0 && int(handle) < len(rhs.handles) {
		rhs.handles[handle] = nil
	}
}

func (bhs *BodyHandles) Remove(handle int32) {
	if handle >= 0 && int(handle) < len(bhs.handles) {
		bhs.handles[handle] = nil
	}
}

// shareHandle reserves the same index in both the request-parts and body tables,
// padding whichever is shorter so the two vectors stay the same length. It guarantees
// body_downstream_get's invariant that the request-parts handle and body handle it
// emits are numerically equal, rather than relying on the two tables coincidentally
// having the same length at the time of the call.
func (i *Instance) shareHandle() int32 {
	for len(i.requests.handles) < len(i.bodies.handles) {
		i.requests.handles = append(i.requests.handles, nil)
	}
	for len(i.bodies.handles) < len(i.requests.handles) {
		i.bodies.handles = append(i.bodies.handles, nil)
	}

	handle := int32(len(i.requests.handles))
	i.requests.handles = append(i.requests.handles, nil)
	i.bodies.handles = append(i.bodies.handles, nil)
	return handle
}
