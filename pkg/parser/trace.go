package parser

import (
	"regexp"
	"strings"
)

var ipv4Re = regexp.MustCompile(`\b(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\b`)

type TraceHop struct {
	Ordinal int // 1-based, in output order
	IP      string
}

// ParseTraceHops takes the first IPv4 address on each line of traceroute or
// tracert output. Lines without one (timeouts, banners) are skipped; the
// banner's destination address, where printed, counts like any other.
func ParseTraceHops(out []byte) []TraceHop {
	var hops []TraceHop
	for _, line := range strings.Split(string(out), "\n") {
		m := ipv4Re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		hops = append(hops, TraceHop{Ordinal: len(hops) + 1, IP: m[1]})
	}
	log.V(1).Info("Parsed trace output", "hops", len(hops))
	return hops
}
