package edgewasm

import (
	"fmt"
	"net/http"
	"net/http/httptest"
)

// Backend is anything capable of handling a proxied request. A configured backend is
// typically an httputil.ReverseProxy; tests can substitute any http.Handler.
type Backend = http.Handler

// geolocationBackendName is the privileged backend name routed to the Geolocation
// Resolver instead of the configured name->host table.
const geolocationBackendName = "geolocation"

// defaultBackend returns the gateway-error fallback used when a requested backend name
// has no entry in the configured table.
func defaultBackend(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "Unknown backend %s", name)
	})
}

// dispatch resolves name to a Backend and runs req against it synchronously, capturing
// the result the same way an httptest.ResponseRecorder captures an http.Handler's output.
// The returned error is always nil: a backend's failures reach the caller only as the
// HTTP response the backend itself writes.
func (i *Instance) dispatch(name string, req *http.Request) (*http.Response, error) {
	var h http.Handler
	switch {
	case name == geolocationBackendName:
		h = GeoHandler(i.geo)
	default:
		if b, ok := i.backends[name]; ok {
			h = b
		} else {
			h = i.defaultBackend(name)
		}
	}

	req.Header.Set("cdn-loop", "fastlike")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result(), nil
}
