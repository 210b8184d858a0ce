package edgewasm

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
)

// Geo represents the geographic data a lookup(ip) resolver produces for the synthetic
// "geolocation" backend.
// See: https://docs.rs/crate/fastly/0.3.2/source/src/geo.rs
type Geo struct {
	ASName           string  `json:"as_name"`
	ASNumber         int     `json:"as_number"`
	AreaCode         int     `json:"area_code"`
	City             string  `json:"city"`
	ConnSpeed        string  `json:"conn_speed"`
	ConnType         string  `json:"conn_type"`
	Continent        string  `json:"continent"`
	CountryCode      string  `json:"country_code"`
	CountryCode3     string  `json:"country_code3"`
	CountryName      string  `json:"country_name"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	MetroCode        int     `json:"metro_code"`
	PostalCode       string  `json:"postal_code"`
	ProxyDescription string  `json:"proxy_description"`
	ProxyType        string  `json:"proxy_type"`
	Region           string  `json:"region,omitempty"`
	UTCOffset        int     `json:"utc_offset"`
}

// GeoResolver maps a client IP to a Geo record.
type GeoResolver func(net.IP) Geo

// DefaultGeo is the resolver used when no host-supplied one is configured: a fixed
// record suitable for tests.
func DefaultGeo(_ net.IP) Geo {
	return Geo{
		ASName:       "fastlike",
		ASNumber:     64496,
		AreaCode:     512,
		City:         "Austin",
		CountryCode:  "US",
		CountryCode3: "USA",
		CountryName:  "United States of America",
		Continent:    "NA",
		Region:       "TX",
		ConnSpeed:    "satellite",
		ConnType:     "satellite",
	}
}

// GeoHandler wraps a GeoResolver as the synthetic "geolocation" backend: it reads the
// target IP from the Fastly-XQD-arg1 request header and writes the resolved Geo record
// as JSON with status 200. A missing or unparseable IP fails with a descriptive 400.
func GeoHandler(fn GeoResolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arg := r.Header.Get("fastly-xqd-arg1")
		ip := net.ParseIP(arg)
		if ip == nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "invalid or missing client IP %q", arg)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(fn(ip))
	})
}
