package state

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/mt-inside/http-log/pkg/output"

	"github.com/mt-inside/host-inspect/pkg/codec"
	"github.com/mt-inside/host-inspect/pkg/parser"
	"github.com/mt-inside/host-inspect/pkg/utils"
)

const (
	certBannerOpen  = "===== Certificate ====="
	certBannerClose = "======================="
)

// ResponseData is everything one run found out. Stages that weren't reached
// (because an earlier one was fatal) leave their fields nil and aren't printed.
type ResponseData struct {
	Target       string
	FallbackHost string

	DNS *DNSResult

	Endpoint    *EndpointTuple
	EndpointErr error

	HTTP            *HTTPResponse
	SecurityHeaders parser.HeaderReport
	// Only set if Target had no security headers and FallbackHost answered
	FallbackHeaders parser.HeaderReport
	ContentLabel    string

	TagCounts map[string]int
	H1        *parser.H1

	TLS     *TLSInfo
	TLSErr  error
	Cert    *codec.DecodedCertificate
	CertErr error

	TraceRan bool
	Hops     []parser.TraceHop
}

func NewResponseData(requestData *RequestData) *ResponseData {
	return &ResponseData{
		Target:       requestData.Target,
		FallbackHost: requestData.FallbackHost,
	}
}

// Print renders the report to w. Failed sections print a warning in their
// place; stages never reached print nothing.
func (rD *ResponseData) Print(s output.TtyStyler, w io.Writer) {
	if rD.DNS != nil {
		fmt.Fprint(w, s.Banner("DNS"))
		d := rD.DNS

		switch d.Source {
		case SourceLiteral:
			fmt.Fprintf(w, "%s is an IP literal; no lookup done\n", s.Addr(d.Query))
		case SourceDNS:
			fmt.Fprintf(w, "DNS Server: %s, authoritative? %s\n", s.Addr(d.Server), s.YesInfo(d.Authoritative))
		default:
			if d.Server != "" {
				fmt.Fprintf(w, "DNS Server: %s (no answer)\n", s.Addr(d.Server))
			}
			fmt.Fprintf(w, "Resolved by the system resolver: %s\n", s.Noun(d.Source))
		}

		if d.Source != SourceLiteral {
			fmt.Fprintf(w, "%s ->", s.Addr(d.FQDN))
			for _, cname := range d.CNAMEs {
				fmt.Fprintf(w, " %s ->", s.Addr(cname))
			}
			fmt.Fprintf(w, " %s", s.List(utils.Map(d.Addrs, func(ip net.IP) string { return ip.String() }), output.AddrStyle))
			if d.TTL > 0 {
				fmt.Fprintf(w, " (ttl remaining %s)", s.Duration(d.TTL))
			}
			fmt.Fprintln(w)
			if d.DNSSECChecked {
				fmt.Fprintf(w, "\tDNSSEC? %s\n", s.YesError(d.DNSSECErr))
			}
			if len(d.RevNames) > 0 {
				fmt.Fprintf(w, "\tReverse: %s\n", s.List(d.RevNames, output.AddrStyle))
			}
		}
		fmt.Fprintf(w, "Using address %s\n", s.Addr(d.IP))
	}

	if rD.Endpoint != nil || rD.EndpointErr != nil {
		fmt.Fprint(w, s.Banner("Endpoint"))
		if rD.EndpointErr != nil {
			fmt.Fprintln(w, s.RenderWarn(rD.EndpointErr.Error()))
		} else {
			fmt.Fprintf(w, "Local %s -> Remote %s (UDP, nothing sent)\n", s.Addr(rD.Endpoint.Local()), s.Addr(rD.Endpoint.Remote()))
		}
	}

	if rD.HTTP == nil {
		return
	}

	fmt.Fprint(w, s.Banner("Security headers"))
	h := rD.HTTP
	fmt.Fprintf(w, "%s %s from %s\n", s.Noun(h.Proto), statusStyle(s, h.StatusCode)(h.Status), s.Noun(h.Server))
	for _, r := range h.Redirects {
		fmt.Fprintf(w, "\tvia redirect to %s\n", s.Addr(r))
	}
	if !h.HeadersFromWire {
		fmt.Fprintln(w, s.RenderInfo("Raw response head not captured; header order is not the server's"))
	}

	if len(rD.SecurityHeaders) > 0 {
		printHeaders(w, s, rD.SecurityHeaders)
	} else if rD.FallbackHeaders != nil {
		fmt.Fprintf(w, "No security headers on %s; showing %s for comparison\n", s.Addr(rD.Target), s.Addr(rD.FallbackHost))
		printHeaders(w, s, rD.FallbackHeaders)
	} else {
		fmt.Fprintf(w, "No security headers on %s\n", s.Addr(rD.Target))
	}

	fmt.Fprint(w, s.Banner("Content-Type"))
	if h.HasContentType {
		fmt.Fprintf(w, "%s: %s\n", s.Noun(h.ContentType), s.Bright(rD.ContentLabel))
	} else {
		fmt.Fprintln(w, s.Warn("no Content-Type header"))
	}
	claimed := "unknown"
	if h.ContentLength >= 0 {
		claimed = strconv.FormatInt(h.ContentLength, 10)
	}
	fmt.Fprintf(w, "\tclaimed %s bytes, read %s\n", s.Number(claimed), s.Number(len(h.Body)))

	fmt.Fprint(w, s.Banner("Tag reference lists"))
	tags := utils.Map(parser.ReferenceTags, func(t string) string {
		return fmt.Sprintf("%s(%d)", t, rD.TagCounts[t])
	})
	fmt.Fprintf(w, "Tags: %s\n", strings.Join(tags, " "))
	labels := utils.Map(parser.TagLabels, func(l parser.TagLabel) string {
		return fmt.Sprintf("%s=%s", l.Label, s.Noun(l.Tag))
	})
	fmt.Fprintf(w, "Labels: %s\n", strings.Join(labels, ", "))

	fmt.Fprint(w, s.Banner("H1"))
	if rD.H1 != nil {
		fmt.Fprintf(w, "%s\n", s.Bright(rD.H1.Text))
		if rD.H1.Raw != rD.H1.Text {
			fmt.Fprintf(w, "\traw: %s\n", s.Info(rD.H1.Raw))
		}
	} else {
		fmt.Fprintln(w, s.Info("no H1 found"))
	}

	if rD.TLS != nil || rD.TLSErr != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Bright(certBannerOpen))
		rD.printCertificate(s, w)
		fmt.Fprintln(w, s.Bright(certBannerClose))
	}

	if rD.TraceRan {
		fmt.Fprint(w, s.Banner("Trace"))
		if len(rD.Hops) == 0 {
			fmt.Fprintln(w, s.Info("no hops found"))
		}
		for _, hop := range rD.Hops {
			fmt.Fprintf(w, "%3d  %s\n", hop.Ordinal, s.Addr(hop.IP))
		}
	}
}

func statusStyle(s output.TtyStyler, code int) func(any) string {
	switch {
	case code < 400:
		return s.Ok
	case code < 500:
		return s.Warn
	default:
		return s.Fail
	}
}

func printHeaders(w io.Writer, s output.TtyStyler, hs parser.HeaderReport) {
	if len(hs) == 0 {
		fmt.Fprintf(w, "\t%s\n", s.Info("<none>"))
	}
	for _, h := range hs {
		fmt.Fprintf(w, "\t%s: %s\n", s.Addr(h.Name), s.Noun(h.Value))
	}
}

func (rD *ResponseData) printCertificate(s output.TtyStyler, w io.Writer) {
	if rD.TLSErr != nil {
		fmt.Fprintln(w, s.RenderWarn(rD.TLSErr.Error()))
		return
	}

	t := rD.TLS
	fmt.Fprintf(w, "%s handshake complete with %s\n", s.Noun(tls.VersionName(t.Version)), s.Addr(t.ServerName))
	fmt.Fprintf(w, "\tSymmetric cypher suite %s\n", s.Noun(tls.CipherSuiteName(t.CipherSuite)))
	fmt.Fprintf(w, "\tALPN proto %s\n", s.Noun(t.ALPN))
	fmt.Fprintf(w, "\tOCSP info stapled to response? %s\n", s.YesNo(t.OCSPStapled))
	fmt.Fprintf(w, "\tCertificates in chain: %s\n", s.Number(t.ChainLen))

	if t.ChainLen == 0 {
		fmt.Fprintln(w, s.RenderInfo("Server presented no certificates; nothing to decode"))
		return
	}
	if rD.CertErr != nil {
		fmt.Fprintln(w, s.RenderWarn(rD.CertErr.Error()))
		return
	}

	c := rD.Cert
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Version: %s\n", s.Number(c.Version))
	fmt.Fprintf(w, "Serial: %s (%s)\n", s.Bright(c.SerialDecimal()), c.SerialHex())
	fmt.Fprintf(w, "Signature algorithm: %s\n", s.Noun(c.Signature.String()))
	fmt.Fprintf(w, "Subject: %s\n", s.Addr(c.Subject.String()))
	fmt.Fprintf(w, "Issuer: %s", s.Addr(c.Issuer.String()))
	if c.SelfIssued() {
		fmt.Fprintf(w, " %s", s.Warn("(self-issued)"))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Not before: %s\n", s.TimeOkExpired(c.NotBefore, true))
	fmt.Fprintf(w, "Not after: %s\n", s.TimeOkExpired(c.NotAfter, false))

	pk := c.PublicKey
	switch pk.Kind {
	case codec.KeyRSA:
		fmt.Fprintf(w, "Public key: %s %s bits\n", s.Noun(pk.Algorithm.Name), s.Number(pk.Bits()))
		fmt.Fprintf(w, "\tModulus: %s\n", utils.Hex(pk.Modulus))
		fmt.Fprintf(w, "\tExponent: %s\n", utils.Hex(pk.Exponent))
	case codec.KeyEC:
		fmt.Fprintf(w, "Public key: %s %s\n", s.Noun(pk.Algorithm.Name), s.Noun(pk.Curve))
		fmt.Fprintf(w, "\tPoint: %s\n", utils.Hex(pk.Point))
	default:
		fmt.Fprintf(w, "Public key: %s (not decoded)\n", s.Noun(pk.Algorithm.String()))
	}

	fmt.Fprintln(w, "Extensions:")
	if len(c.Extensions) == 0 {
		fmt.Fprintf(w, "\t%s\n", s.Info("<none>"))
	}
	for _, e := range c.Extensions {
		crit := ""
		if e.Critical {
			crit = " " + s.Warn("[critical]")
		}
		fmt.Fprintf(w, "\t%s (%s)%s: %s\n", s.Noun(e.Name), e.OID, crit, e.Value)
	}

	fmt.Fprintf(w, "Signature: %s\n", utils.Hex(c.SignatureValue))
}
