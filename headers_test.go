package edgewasm

import (
	"net/http"
	"testing"
)

func TestSortedHeaderNames(t *testing.T) {
	h := http.Header{"User-Agent": {"x"}, "Accept": {"y"}, "Host": {"z"}}

	got := sortedHeaderNames(h)
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

func TestValidHeaderName(t *testing.T) {
	for _, name := range []string{"Content-Type", "x-custom_header", "X-A.B"} {
		if !validHeaderName(name) {
			t.Errorf("expected %q to be a valid header name", name)
		}
	}
	for _, name := range []string{"", "bad name", "bad:name", "bad\tname"} {
		if validHeaderName(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestValidHeaderValue(t *testing.T) {
	if !validHeaderValue("normal value") {
		t.Errorf("expected a plain value to be valid")
	}
	for _, bad := range []string{"line\r\ninjected: true", "has\rreturn", "has\x00nul"} {
		if validHeaderValue(bad) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
