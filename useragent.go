package edgewasm

import (
	"regexp"

	"github.com/ua-parser/uap-go/uaparser"
)

// UserAgent is the (family, major, minor, patch) tuple a UA string parses to. Missing
// minor/patch fields are the empty string, never a placeholder.
type UserAgent struct {
	Family string
	Major  string
	Minor  string
	Patch  string
}

// UserAgentParser parses a UA string into its structured fields.
type UserAgentParser func(uastring string) UserAgent

// uapParser adapts github.com/ua-parser/uap-go's regex-table parser, loaded from a
// BrowserScope-format regexes.yaml, to the UserAgentParser signature.
func uapParser(p *uaparser.Parser) UserAgentParser {
	return func(uastring string) UserAgent {
		client := p.Parse(uastring)
		return UserAgent{
			Family: client.UserAgent.Family,
			Major:  client.UserAgent.Major,
			Minor:  client.UserAgent.Minor,
			Patch:  client.UserAgent.Patch,
		}
	}
}

// NewUserAgentParser loads a regexes.yaml-format rule file (the format ua-parser/uap-go
// consumes) and returns a UserAgentParser backed by it.
func NewUserAgentParser(regexesPath string) (UserAgentParser, error) {
	p, err := uaparser.New(regexesPath)
	if err != nil {
		return nil, err
	}
	return uapParser(p), nil
}

// defaultUAFamilies is the rule table behind defaultUserAgentParser, the parser used when
// no regexes.yaml is configured. It covers the handful of
// UA families the test fixtures exercise; the rule set is data, not behavior, and a real
// deployment is expected to supply its own regexes.yaml via NewUserAgentParser.
var defaultUAFamilies = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`^curl/([0-9]+)\.([0-9]+)\.([0-9]+)`), "curl"},
	{regexp.MustCompile(`Firefox/([0-9]+)\.([0-9]+)\.([0-9]+)`), "Firefox"},
	{regexp.MustCompile(`Firefox/([0-9]+)\.([0-9]+)`), "Firefox"},
	{regexp.MustCompile(`Chrome/([0-9]+)\.([0-9]+)\.([0-9]+)`), "Chrome"},
	{regexp.MustCompile(`Version/([0-9]+)\.([0-9]+)(?:\.([0-9]+))? .*Safari/`), "Safari"},
}

func defaultUserAgentParser(uastring string) UserAgent {
	for _, f := range defaultUAFamilies {
		m := f.re.FindStringSubmatch(uastring)
		if m == nil {
			continue
		}
		ua := UserAgent{Family: f.name, Major: m[1]}
		if len(m) > 2 {
			ua.Minor = m[2]
		}
		if len(m) > 3 {
			ua.Patch = m[3]
		}
		return ua
	}
	return UserAgent{Family: "Other"}
}
