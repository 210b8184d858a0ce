// Package edgewasm is a local emulator of a commercial edge-compute platform's
// host-call ABI: it loads a customer-supplied WASI module once and runs it against a
// fresh Instance per downstream HTTP request.
//
// The public surface is intentionally small: New/NewFromWasm compile the module once,
// and Instantiate (or ServeHTTP directly) produces one Instance per request.
package edgewasm

import (
	"net/http"
)

// Fastlike holds the compiled wasm engine and module, shared read-only across every
// Instance it creates.
type Fastlike struct {
	wasmctx *wasmContext
}

// New compiles the wasm module at wasmfile.
func New(wasmfile string) (*Fastlike, error) {
	ctx, err := compileFile(wasmfile)
	if err != nil {
		return nil, err
	}
	return &Fastlike{wasmctx: ctx}, nil
}

// NewFromWasm compiles an already-loaded wasm module.
func NewFromWasm(wasm []byte) (*Fastlike, error) {
	ctx, err := compileBytes(wasm)
	if err != nil {
		return nil, err
	}
	return &Fastlike{wasmctx: ctx}, nil
}

// Instantiate builds a fresh Instance ready to serve one request, applying opts on top
// of the built-in defaults.
func (f *Fastlike) Instantiate(opts ...Option) *Instance {
	return NewInstance(f.wasmctx, opts...)
}

// ServeHTTP instantiates a fresh Instance with no per-request options and serves r
// through it. Embedders that need configured backends/dictionaries/loggers on every
// request should instead call Instantiate(opts...).ServeHTTP for each one.
func (f *Fastlike) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.Instantiate().ServeHTTP(w, r)
}
