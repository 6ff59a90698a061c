package probes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/miekg/dns"
	"github.com/peterzen/goresolver"
	"golang.org/x/net/idna"

	"github.com/mt-inside/host-inspect/pkg/state"
)

type lookupIPFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// Resolver finds one address for the target. It asks the resolv.conf servers
// itself, so it can say who answered and show the CNAME chain, and falls back
// to the system resolver (which also knows about /etc/hosts, nsswitch, etc).
type Resolver struct {
	log logr.Logger

	resolvConf string
	cfg        *dns.ClientConfig
	cfgErr     error

	timeout time.Duration
	dnssec  bool

	system lookupIPFunc
}

func NewResolver(log logr.Logger, requestData *state.RequestData) *Resolver {
	cfg, err := dns.ClientConfigFromFile(requestData.ResolvConf)
	return &Resolver{
		log:        log.WithName("dns"),
		resolvConf: requestData.ResolvConf,
		cfg:        cfg,
		cfgErr:     err,
		timeout:    requestData.Timeout,
		dnssec:     requestData.DNSSEC,
		system:     net.DefaultResolver.LookupIPAddr,
	}
}

/* Testing:
* - www.wikipedia.org has CNAME
* - cloudflare.net is DNSSEC
* - localhost is in Files
* - google.com has ipv6 & v4
 */

// Resolve has no overall deadline: each configured server, the system
// resolver, and each annotation get their own timeout, so one dead server
// doesn't starve the rest.
func (r *Resolver) Resolve(ctx context.Context, target string) (*state.DNSResult, error) {
	if ip := net.ParseIP(strings.Trim(target, "[]")); ip != nil {
		r.log.V(1).Info("Target is an IP literal", "ip", ip)
		return &state.DNSResult{Query: target, FQDN: target, IP: ip, Source: state.SourceLiteral, Addrs: []net.IP{ip}}, nil
	}

	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(target, "."))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid hostname: %v", ErrResolution, target, err)
	}
	if ascii != target {
		r.log.V(1).Info("Converted to ASCII", "name", target, "ascii", ascii)
	}

	if r.cfgErr == nil {
		res, err := r.queryDNS(ctx, ascii)
		if err == nil {
			res.Query = target
			r.annotate(ctx, res)
			return res, nil
		}
		r.log.V(1).Info("Manual DNS resolution failed; trying system resolver", "error", err)
	} else {
		r.log.V(1).Info("Can't read resolver config; using system resolver", "path", r.resolvConf, "error", r.cfgErr)
	}

	res, err := r.querySystem(ctx, ascii)
	if err != nil {
		return nil, err
	}
	res.Query = target
	if r.cfgErr == nil && len(r.cfg.Servers) > 0 {
		res.Server = net.JoinHostPort(r.cfg.Servers[0], r.cfg.Port)
	}
	return res, nil
}

// asciiHost is target as it goes in URLs and SNI: IP literals unbracketed,
// names in their IDNA ASCII form.
func asciiHost(target string) string {
	if ip := net.ParseIP(strings.Trim(target, "[]")); ip != nil {
		return ip.String()
	}
	ascii, err := idna.Lookup.ToASCII(strings.TrimSuffix(target, "."))
	if err != nil {
		return target
	}
	return ascii
}

func (r *Resolver) client() *dns.Client {
	return &dns.Client{
		Dialer: &net.Dialer{Timeout: r.timeout},
	}
}

// errNoAddresses means a server answered properly but had no addresses for
// any search-path name.
var errNoAddresses = errors.New("no addresses")

func (r *Resolver) queryDNS(ctx context.Context, name string) (*state.DNSResult, error) {
	names := r.cfg.NameList(name)
	c := r.client()

	var lastErr error
	for _, serverHost := range r.cfg.Servers {
		server := net.JoinHostPort(serverHost, r.cfg.Port)

		res, err := r.queryServer(ctx, c, server, names)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, errNoAddresses) {
			// This server answered and had nothing. Asking the others won't change that, as they all see the same DNS.
			return nil, fmt.Errorf("%w: %s: NXDOMAIN", ErrResolution, name)
		}
		r.log.V(1).Info("DNS server failed", "addr", server, "error", err)
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no DNS servers configured")
	}
	return nil, fmt.Errorf("%w: all DNS servers failed: %v", ErrResolution, lastErr)
}

// queryServer walks the search list against one server, under its own deadline.
// Only NOERROR and NXDOMAIN replies count as answers; anything else
// (SERVFAIL, REFUSED) is this server's failure, and the next one gets asked.
func (r *Resolver) queryServer(ctx context.Context, c *dns.Client, server string, names []string) (*state.DNSResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	r.log.V(1).Info("Trying DNS server", "addr", server)

	for _, fqdn := range names {
		r.log.V(1).Info("Trying search path item", "fqdn", fqdn)

		var answers []dns.RR
		var authoritative bool
		var failed error
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			m := new(dns.Msg)
			// By default this sets the flag to ask whatever server is configured to recurse for us
			m.SetQuestion(fqdn, qtype)

			in, _, err := c.ExchangeContext(ctx, m, server)
			if err == nil && in.Rcode != dns.RcodeSuccess && in.Rcode != dns.RcodeNameError {
				err = fmt.Errorf("%s for %s %s", dns.RcodeToString[in.Rcode], fqdn, dns.TypeToString[qtype])
			}
			if err != nil {
				// Whatever the A query got is still good
				failed = err
				break
			}
			r.log.V(2).Info("DNS answer", "fqdn", fqdn, "type", dns.TypeToString[qtype], "rcode", dns.RcodeToString[in.Rcode], "answers", len(in.Answer))

			answers = append(answers, in.Answer...)
			// Authoritative is about the zone, so the same for A and AAAA
			authoritative = in.Authoritative
		}

		res := indexAnswers(fqdn, answers)
		if res.IP != nil {
			if failed != nil {
				r.log.V(1).Info("Using partial answer", "fqdn", fqdn, "error", failed)
			}
			res.Server = server
			res.Source = state.SourceDNS
			res.Authoritative = authoritative
			return res, nil
		}
		if failed != nil {
			return nil, failed
		}
	}

	return nil, errNoAddresses
}

/* Notes
* - CNAMEs can only point to one thing, thus there can only be one "chain" with no branching along the way
* - exception is the last "link" which is the A record(s)
* - TTL on all returned records will be the same, as they all come in one Answer
 */
func indexAnswers(fqdn string, answers []dns.RR) *state.DNSResult {
	res := &state.DNSResult{FQDN: fqdn}

	/* Index */

	cnames := map[string]string{}
	var v4s, v6s []net.IP
	for _, ans := range answers {
		switch t := ans.(type) {
		case *dns.CNAME:
			cnames[t.Hdr.Name] = t.Target
		case *dns.A:
			v4s = append(v4s, t.A)
		case *dns.AAAA:
			v6s = append(v6s, t.AAAA)
		}
	}

	/* Follow */

	seen := map[string]bool{fqdn: true}
	for cname := fqdn; ; {
		target, found := cnames[cname]
		if !found || seen[target] {
			break
		}
		res.CNAMEs = append(res.CNAMEs, target)
		seen[target] = true
		cname = target
	}

	res.Addrs = append(v4s, v6s...)
	if len(res.Addrs) > 0 {
		res.IP = res.Addrs[0]
	}
	if len(answers) > 0 {
		res.TTL = time.Duration(answers[0].Header().Ttl) * time.Second
	}

	return res
}

func (r *Resolver) querySystem(ctx context.Context, name string) (*state.DNSResult, error) {
	r.log.V(1).Info("Asking system resolver", "resolver", DnsResolverName, "name", name)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	addrs, err := r.system(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s has no addresses", ErrResolution, name)
	}

	res := &state.DNSResult{FQDN: name, Source: DnsResolverName}
	for _, a := range addrs {
		res.Addrs = append(res.Addrs, a.IP)
		if res.IP == nil && a.IP.To4() != nil {
			res.IP = a.IP
		}
	}
	if res.IP == nil {
		res.IP = res.Addrs[0]
	}
	return res, nil
}

// annotate adds the informational extras. Nothing here can fail the resolution.
func (r *Resolver) annotate(ctx context.Context, res *state.DNSResult) {
	if r.dnssec {
		res.DNSSECChecked = true
		res.DNSSECErr = r.checkDNSSEC(ctx, res.FQDN)
	}

	names, err := r.queryRevDNS(ctx, res.Server, res.IP)
	if err != nil {
		// Info-level cause reverse DNS is never set up properly
		r.log.V(1).Info("Reverse lookup failed", "ip", res.IP, "error", err)
		return
	}
	res.RevNames = names
}

/* Validating DNSSEC ourselves would mean chasing RRSIG, DNSKEY and DS right up to the root.
 * Recursive resolvers are known to strip the DNSSEC records, so their AD bit isn't trustworthy either.
 * goresolver does the whole walk properly, but takes no context, so it's raced against our deadline.
 * On timeout its goroutine is abandoned; its own per-query timeouts end it eventually.
 */
func (r *Resolver) checkDNSSEC(ctx context.Context, fqdn string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		resolver, err := goresolver.NewResolver(r.resolvConf)
		if err == nil {
			_, err = resolver.StrictNSQuery(fqdn, dns.TypeA)
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("DNSSEC validation of %s: %w", fqdn, ctx.Err())
	}
}

func (r *Resolver) queryRevDNS(ctx context.Context, server string, ip net.IP) ([]string, error) {
	revIP, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return nil, err
	}
	r.log.V(1).Info("Resolving in reverse-zone", "address", revIP)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	m := new(dns.Msg)
	m.SetQuestion(revIP, dns.TypePTR)
	in, _, err := r.client().ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, ans := range in.Answer {
		// Anything else (CNAMEs for classless delegation) is skipped
		if ptr, ok := ans.(*dns.PTR); ok {
			names = append(names, ptr.Ptr)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: NXDOMAIN", revIP)
	}
	return names, nil
}
