package parser

import (
	"bufio"
	"bytes"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

type Header struct {
	Name  string // as sent, not canonicalised
	Value string
}

type HeaderReport []Header

var SecurityHeaderFragments = []string{
	"content-security-policy",
	"strict-transport-security",
	"x-frame-options",
	"x-content-type-options",
	"referrer-policy",
	"permissions-policy",
}

// SecurityHeaders picks out the headers whose names contain any of the
// security-header fragments, case-insensitively, keeping the order they came in.
func SecurityHeaders(hs []Header) HeaderReport {
	report := HeaderReport{}
	for _, h := range hs {
		lower := strings.ToLower(h.Name)
		for _, frag := range SecurityHeaderFragments {
			if strings.Contains(lower, frag) {
				report = append(report, h)
				break
			}
		}
	}
	log.V(1).Info("Scanned for security headers", "headers", len(hs), "found", len(report))
	return report
}

/* Header block as read off the wire:
 * HTTP/1.1 200 OK\r\n
 * Name: value\r\n
 *  continued value\r\n   (obs-fold, long deprecated but still legal to receive)
 * \r\n
 */

// ParseHeaderBlock turns a raw HTTP/1.x response head into its headers, in
// order and with their original casing. The status line is skipped.
func ParseHeaderBlock(raw []byte) []Header {
	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw)))

	if _, err := r.ReadLine(); err != nil {
		log.Info("Empty header block")
		return nil
	}

	var hs []Header
	for {
		line, err := r.ReadContinuedLine()
		if err != nil || line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			log.Info("Ignoring malformed header line", "line", line)
			continue
		}
		hs = append(hs, Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return hs
}

// HeadersFromMap is for when we don't have the wire bytes. Order is lost, so
// it's made deterministic by sorting on name.
func HeadersFromMap(m http.Header) []Header {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)

	var hs []Header
	for _, n := range names {
		for _, v := range m[n] {
			hs = append(hs, Header{Name: n, Value: v})
		}
	}
	return hs
}

const (
	LabelHTML    = "HTML web page"
	LabelText    = "Text file"
	LabelJSON    = "JSON data"
	LabelBinary  = "Generic binary file"
	LabelGeneric = "Generic type"
)

// Order matters: text/html must be tested before text/.
var contentTypeLabels = []struct {
	fragment string
	label    string
}{
	{"text/html", LabelHTML},
	{"text/", LabelText},
	{"application/json", LabelJSON},
	{"application/octet-stream", LabelBinary},
}

func ClassifyContentType(ct string) string {
	ct = strings.ToLower(ct)
	for _, l := range contentTypeLabels {
		if strings.Contains(ct, l.fragment) {
			return l.label
		}
	}
	return LabelGeneric
}
