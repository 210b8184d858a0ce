// Command edgewasm runs a wasm program compiled against the host-call ABI this module
// emulates, serving it over HTTP with a configurable set of backends, dictionaries,
// log endpoints, and a geolocation source.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"

	"github.com/localedge/edgewasm"
)

func main() {
	wasmfile := flag.String("wasm", "", "wasm program to execute")
	bind := flag.String("bind", "localhost:5000", "address to bind to")
	verbose := flag.Bool("v", false, "trace host calls to stdout (only abi.init is traced)")
	geoFile := flag.String("geo", "", "JSON file mapping IP/CIDR to geolocation records")

	backends := make(backendFlags)
	flag.Var(&backends, "backend", "<name=host> specifying a backend; an empty name sets the default backend")

	dictionaries := make(dictionaryFlags)
	flag.Var(&dictionaries, "dictionary", "<name=file.json> specifying a dictionary; the JSON file must hold only string values")

	loggers := make(loggerFlags)
	flag.Var(&loggers, "logger", "<name=file> or <name> specifying a log endpoint; omit =file to log to stdout")

	flag.Parse()

	if *wasmfile == "" {
		fmt.Fprintln(flag.CommandLine.Output(), "-wasm is required")
		flag.Usage()
		os.Exit(1)
	}

	fl, err := edgewasm.New(*wasmfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error compiling %s: %s\n", *wasmfile, err)
		os.Exit(1)
	}

	opts := []edgewasm.Option{}

	for name, b := range backends {
		proxy := b.proxy
		if name == "" {
			opts = append(opts, edgewasm.WithDefaultBackend(func(_ string) http.Handler { return proxy }))
		} else {
			opts = append(opts, edgewasm.WithBackend(name, proxy))
		}
	}

	for name, d := range dictionaries {
		opts = append(opts, edgewasm.WithDictionary(name, d.fn))
	}

	for name, l := range loggers {
		opts = append(opts, edgewasm.WithLogger(name, l.writer))
	}

	if *geoFile != "" {
		resolve, err := loadGeoFile(*geoFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading geo file: %s\n", err)
			os.Exit(1)
		}
		opts = append(opts, edgewasm.WithGeo(resolve))
	}

	opts = append(opts, edgewasm.WithVerbose(*verbose))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl.Instantiate(opts...).ServeHTTP(w, r)
	})

	fmt.Printf("listening on %s\n", *bind)
	if err := http.ListenAndServe(*bind, handler); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %s\n", err)
		os.Exit(1)
	}
}

type backendEntry struct {
	address string
	proxy   http.Handler
}

type backendFlags map[string]backendEntry

func (f *backendFlags) String() string {
	parts := make([]string, 0, len(*f))
	for name, b := range *f {
		parts = append(parts, fmt.Sprintf("%s=%s", name, b.address))
	}
	return strings.Join(parts, ", ")
}

func (f *backendFlags) Set(v string) error {
	name, addr := "", v
	if i := strings.IndexByte(v, '='); i >= 0 {
		name, addr = v[:i], v[i+1:]
	}

	if !strings.HasPrefix(addr, "http") {
		addr = "http://" + addr
	}

	dest, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid backend %s: %w", v, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(dest)
	baseDirector := proxy.Director
	proxy.Director = func(r *http.Request) {
		baseDirector(r)
		r.Host = dest.Host
	}

	(*f)[name] = backendEntry{address: addr, proxy: proxy}
	return nil
}

type dictionaryEntry struct {
	filename string
	fn       edgewasm.LookupFunc
}

type dictionaryFlags map[string]dictionaryEntry

func (f *dictionaryFlags) String() string {
	parts := make([]string, 0, len(*f))
	for name, d := range *f {
		parts = append(parts, fmt.Sprintf("%s=%s", name, d.filename))
	}
	return strings.Join(parts, ", ")
}

func (f *dictionaryFlags) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid dictionary %s, expected name=file.json", v)
	}
	name, filename := parts[0], parts[1]

	fd, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("opening dictionary file %s: %w", filename, err)
	}
	defer fd.Close()

	content := map[string]string{}
	if err := json.NewDecoder(fd).Decode(&content); err != nil {
		return fmt.Errorf("parsing dictionary file %s: %w", filename, err)
	}

	(*f)[name] = dictionaryEntry{filename: filename, fn: func(key string) string { return content[key] }}
	return nil
}

type loggerEntry struct {
	filename string
	writer   *os.File
}

type loggerFlags map[string]loggerEntry

func (f *loggerFlags) String() string {
	parts := make([]string, 0, len(*f))
	for name, l := range *f {
		if l.filename != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", name, l.filename))
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

func (f *loggerFlags) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	name := parts[0]

	writer := os.Stdout
	filename := ""
	if len(parts) == 2 {
		filename = parts[1]
		fd, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening logger file %s: %w", filename, err)
		}
		writer = fd
	}

	(*f)[name] = loggerEntry{filename: filename, writer: writer}
	return nil
}

// loadGeoFile loads a JSON file mapping IP or CIDR strings to edgewasm.Geo records,
// returning a resolver that prefers the most specific CIDR match and falls back to
// DefaultGeo for anything unmatched.
func loadGeoFile(filename string) (edgewasm.GeoResolver, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var raw map[string]edgewasm.Geo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	type entry struct {
		network *net.IPNet
		ip      net.IP
		geo     edgewasm.Geo
	}

	entries := make([]entry, 0, len(raw))
	for key, geo := range raw {
		if _, network, err := net.ParseCIDR(key); err == nil {
			entries = append(entries, entry{network: network, geo: geo})
			continue
		}
		if ip := net.ParseIP(key); ip != nil {
			entries = append(entries, entry{ip: ip, geo: geo})
			continue
		}
		return nil, fmt.Errorf("invalid IP or CIDR %q in geo file", key)
	}

	return func(ip net.IP) edgewasm.Geo {
		for _, e := range entries {
			if e.ip != nil && e.ip.Equal(ip) {
				return e.geo
			}
		}

		var best *entry
		var bestMaskSize int
		for i := range entries {
			e := &entries[i]
			if e.network == nil || !e.network.Contains(ip) {
				continue
			}
			if maskSize, _ := e.network.Mask.Size(); best == nil || maskSize > bestMaskSize {
				best = e
				bestMaskSize = maskSize
			}
		}
		if best != nil {
			return best.geo
		}
		return edgewasm.DefaultGeo(ip)
	}, nil
}
