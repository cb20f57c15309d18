// Package ports provides the static catalog of well-known TCP services probed by nexus.
package ports

import "sort"

// PortSpec is one catalog entry. Priority only orders the scan and the output.
type PortSpec struct {
	Port     uint16 `json:"port"`
	Service  string `json:"service"`
	Priority int    `json:"priority"`
}

// Catalog is the declared scan catalog. Callers must not modify it.
var Catalog = []PortSpec{
	{Port: 80, Service: "HTTP", Priority: 100},
	{Port: 443, Service: "HTTPS", Priority: 100},
	{Port: 21, Service: "FTP", Priority: 60},
	{Port: 22, Service: "SSH", Priority: 90},
	{Port: 23, Service: "Telnet", Priority: 50},
	{Port: 25, Service: "SMTP", Priority: 70},
	{Port: 53, Service: "DNS", Priority: 80},
	{Port: 3306, Service: "MySQL", Priority: 75},
	{Port: 3389, Service: "RDP", Priority: 70},
	{Port: 8080, Service: "HTTP-Proxy", Priority: 80},
	{Port: 445, Service: "SMB", Priority: 85},
}

// ByPriority returns a copy of specs sorted by descending priority.
// Entries with equal priority keep their relative order.
func ByPriority(specs []PortSpec) []PortSpec {
	out := make([]PortSpec, len(specs))
	copy(out, specs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Lookup returns the catalog entry for port, if any.
func Lookup(port uint16) (PortSpec, bool) {
	for _, spec := range Catalog {
		if spec.Port == port {
			return spec, true
		}
	}
	return PortSpec{}, false
}
