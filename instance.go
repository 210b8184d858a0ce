package edgewasm

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"sort"

	"github.com/bytecodealliance/wasmtime-go/v25"
)

// Instance is a single downstream request's Session State plus the wasmtime store and
// linker used to run the guest module against it. Each ServeHTTP call gets a fresh
// Instance; nothing here is shared mutable state between requests.
type Instance struct {
	wasmctx *wasmContext

	store  *wasmtime.Store
	memory *Memory
	abilog *log.Logger

	verbose bool

	// Session State: five handle tables.
	requests     RequestHandles
	responses    ResponseHandles
	bodies       BodyHandles
	dictionaries []dictionarySnapshot
	endpoints    []io.Writer

	// Host-configured, read-only across the lifetime of the Instance.
	backends         map[string]http.Handler
	defaultBackend   func(name string) http.Handler
	dictionaryConfig []namedDictionary
	loggerConfig     map[string]io.Writer
	geo              GeoResolver
	uaparser         UserAgentParser

	// The downstream request, consumed at most once by body_downstream_get.
	dsRequest     *http.Request
	dsConsumed    bool
	dsHeaderNames []string

	// The final response, installed by send_downstream. Nil until then; the Lifecycle
	// Driver falls back to a zero-value 200 response if the guest never calls it.
	finalResponse *ResponseHandle
	finalBody     *BodyHandle
}

// NewInstance builds a fresh Instance sharing wasmctx's compiled module, applying opts on
// top of the built-in defaults (no backends, gateway-error fallback, fixed geo record,
// built-in UA rule table).
func NewInstance(wasmctx *wasmContext, opts ...Option) *Instance {
	i := &Instance{
		wasmctx:        wasmctx,
		abilog:         log.New(io.Discard, "", 0),
		backends:       map[string]http.Handler{},
		defaultBackend: defaultBackend,
		geo:            DefaultGeo,
		uaparser:       defaultUserAgentParser,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// setup prepares a fresh wasmtime.Store and Linker for this Instance's single execution,
// defines WASI, links the host-call ABI namespaces, and instantiates the module.
func (i *Instance) setup() (*wasmtime.Instance, error) {
	i.store = wasmtime.NewStore(i.wasmctx.engine)
	i.store.SetEpochDeadline(1)

	wasicfg := wasmtime.NewWasiConfig()
	wasicfg.InheritStdout()
	wasicfg.InheritStderr()
	i.store.SetWasi(wasicfg)

	linker := wasmtime.NewLinker(i.wasmctx.engine)
	if err := linker.DefineWASI(); err != nil {
		return nil, fmt.Errorf("defining wasi: %w", err)
	}
	if err := i.link(linker); err != nil {
		return nil, fmt.Errorf("linking host abi: %w", err)
	}

	wi, err := linker.Instantiate(i.store, i.wasmctx.module)
	if err != nil {
		return nil, fmt.Errorf("instantiating module: %w", err)
	}

	mem := wi.GetExport(i.store, "memory")
	if mem == nil || mem.Memory() == nil {
		return nil, fmt.Errorf("module does not export memory")
	}
	i.memory = &Memory{&wasmMemory{store: i.store, mem: mem.Memory()}}

	return wi, nil
}

// ServeHTTP is the Request Lifecycle Driver: build a Session around r, instantiate the
// module, run _start, and write whatever final response the guest installed (or a
// zero-value 200 if it never called send_downstream).
func (i *Instance) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("cdn-loop") == "fastlike" {
		w.WriteHeader(http.StatusLoopDetected)
		return
	}

	if i.verbose || r.Header.Get("fastlike-verbose") != "" {
		i.abilog = log.New(os.Stdout, "abi: ", 0)
	}

	i.dsRequest = r
	i.dsHeaderNames = headerSnapshot(r.Header)

	wi, err := i.setup()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Error setting up wasm instance: %s\n", err)
		return
	}

	start := wi.GetExport(i.store, "_start")
	if start == nil || start.Func() == nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, "Error running wasm program: module missing _start")
		return
	}

	// A goroutine bumps the shared engine epoch if the downstream request's context ends
	// before _start returns, turning a client hangup/deadline into a wasm trap on whatever
	// host call the guest is blocked in.
	donech := make(chan struct{}, 1)
	go func(ctx context.Context) {
		select {
		case <-ctx.Done():
			i.wasmctx.engine.IncrementEpoch()
		case <-donech:
		}
	}(r.Context())

	callErr := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("host call panicked: %v", p)
			}
		}()
		_, err = start.Func().Call(i.store)
		return err
	}()
	donech <- struct{}{}

	if callErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Error running wasm program: %s\n", callErr)
		return
	}

	i.writeFinalResponse(w)
}

// writeFinalResponse flushes whatever send_downstream installed, or the spec-mandated
// zero-value 200 response if it was never called.
func (i *Instance) writeFinalResponse(w http.ResponseWriter) {
	if i.finalResponse == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	for k, vs := range i.finalResponse.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(i.finalResponse.StatusCode)

	if i.finalBody != nil {
		io.Copy(w, i.finalBody)
	}
}

// downstreamClientIP extracts the caller's IP from the downstream request's RemoteAddr.
func (i *Instance) downstreamClientIP() net.IP {
	host, _, err := net.SplitHostPort(i.dsRequest.RemoteAddr)
	if err != nil {
		host = i.dsRequest.RemoteAddr
	}
	return net.ParseIP(host)
}

// headerSnapshot captures a header's names at the moment the downstream request arrives,
// for original_header_count/original_header_names_get to report even after the request's
// own Header map is mutated by the guest. Sorted lexicographically so this enumeration
// matches the ordering the request/response header enumerations give via
// sortedHeaderNames.
func headerSnapshot(h http.Header) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
