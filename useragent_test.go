package edgewasm

import "testing"

func TestDefaultUserAgentParser(t *testing.T) {
	cases := []struct {
		uastring string
		want     UserAgent
	}{
		{
			"curl/7.64.1",
			UserAgent{Family: "curl", Major: "7", Minor: "64", Patch: "1"},
		},
		{
			"Mozilla/5.0 (X11; Fedora; Linux x86_64; rv:76.0) Gecko/20100101 Firefox/76.1.15",
			UserAgent{Family: "Firefox", Major: "76", Minor: "1", Patch: "15"},
		},
		{
			"unrecognized-agent-string",
			UserAgent{Family: "Other"},
		},
	}

	for _, c := range cases {
		got := defaultUserAgentParser(c.uastring)
		if got != c.want {
			t.Errorf("parsing %q: expected %+v, got %+v", c.uastring, c.want, got)
		}
	}
}
