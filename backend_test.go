package edgewasm

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDispatch_UnknownBackendUsesDefaultBackendFallback(t *testing.T) {
	i := &Instance{backends: map[string]http.Handler{}, defaultBackend: defaultBackend}

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	resp, err := i.dispatch("nope", req)
	if err != nil {
		t.Fatalf("dispatch returned an error: %s", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 from the default backend, got %d", resp.StatusCode)
	}
}

func TestDispatch_SetsCDNLoopHeaderOnTheOutboundRequest(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("cdn-loop")
		w.WriteHeader(http.StatusOK)
	})

	i := &Instance{backends: map[string]http.Handler{"origin": h}, defaultBackend: defaultBackend}
	req := httptest.NewRequest("GET", "http://example.com/", nil)

	if _, err := i.dispatch("origin", req); err != nil {
		t.Fatalf("dispatch returned an error: %s", err)
	}
	if seen != "fastlike" {
		t.Errorf("expected cdn-loop: fastlike on the outbound request, got %q", seen)
	}
}

func TestDispatch_RoutesGeolocationNameToGeoHandler(t *testing.T) {
	i := &Instance{
		backends:       map[string]http.Handler{},
		defaultBackend: defaultBackend,
		geo:            DefaultGeo,
	}

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.Header.Set("fastly-xqd-arg1", "8.8.8.8")

	resp, err := i.dispatch(geolocationBackendName, req)
	if err != nil {
		t.Fatalf("dispatch returned an error: %s", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from the geolocation backend, got %d", resp.StatusCode)
	}
}

func TestGeoHandler_MissingIPReturns400(t *testing.T) {
	h := GeoHandler(DefaultGeo)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://example.com/", nil)

	h.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing client IP, got %d", w.Code)
	}
}

func TestGeoHandler_ValidIPReturnsResolvedRecord(t *testing.T) {
	var resolvedWith net.IP
	h := GeoHandler(func(ip net.IP) Geo {
		resolvedWith = ip
		return Geo{City: "Testville"}
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	r.Header.Set("fastly-xqd-arg1", "203.0.113.9")

	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resolvedWith == nil || !resolvedWith.Equal(net.ParseIP("203.0.113.9")) {
		t.Errorf("expected resolver to be called with 203.0.113.9, got %v", resolvedWith)
	}
}
