package edgewasm

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestInstance() *Instance {
	return &Instance{
		memory:         &Memory{ByteMemory(make([]byte, 256))},
		backends:       map[string]http.Handler{},
		defaultBackend: defaultBackend,
	}
}

func TestXqdReqSend_RemovesTheRequestAndBodyHandlesItConsumed(t *testing.T) {
	i := newTestInstance()
	i.backends["origin"] = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	reqH, _ := i.requests.New()
	bodyH, _ := i.bodies.NewBuffer()

	backend := "origin"
	i.memory.WriteAt([]byte(backend), 0)

	status := i.xqdReqSend(reqH, bodyH, 0, int32(len(backend)), 64, 68)
	if status != statusOK.i32() {
		t.Fatalf("expected OK, got status %d", status)
	}

	if i.requests.Get(reqH) != nil {
		t.Errorf("expected the sent request handle to be removed")
	}
	if i.bodies.Get(bodyH) != nil {
		t.Errorf("expected the sent body handle to be removed")
	}
}

func TestXqdRespSendDownstream_RemovesTheResponseAndBodyHandlesItConsumed(t *testing.T) {
	i := newTestInstance()

	respH, _ := i.responses.New()
	bodyH, _ := i.bodies.NewBuffer()

	status := i.xqdRespSendDownstream(respH, bodyH, 0)
	if status != statusOK.i32() {
		t.Fatalf("expected OK, got status %d", status)
	}

	if i.finalResponse == nil || i.finalBody == nil {
		t.Fatalf("expected finalResponse/finalBody to be installed")
	}
	if i.responses.Get(respH) != nil {
		t.Errorf("expected the consumed response handle to be removed")
	}
	if i.bodies.Get(bodyH) != nil {
		t.Errorf("expected the consumed body handle to be removed")
	}
}

func TestHeaderSnapshot_ReturnsNamesInLexicographicOrder(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	r.Header.Set("User-Agent", "x")
	r.Header.Set("Accept", "y")
	r.Header.Set("Host", "z")

	got := headerSnapshot(r.Header)
	want := []string{"Accept", "Host", "User-Agent"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
