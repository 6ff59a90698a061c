package probes

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-logr/logr"

	"github.com/mt-inside/host-inspect/pkg/parser"
	"github.com/mt-inside/host-inspect/pkg/state"
)

const (
	maxHeadBytes = 64 << 10
	maxBodyBytes = 16 << 20
	maxRedirects = 10
)

// headRecorder tees everything read from a connection until the end of the
// final response head, so we can recover header order and casing, which
// http.Header throws away. Interim 1xx heads are dropped, as net/http does.
type headRecorder struct {
	net.Conn

	mu   sync.Mutex
	buf  bytes.Buffer
	done bool
}

var endOfHead = []byte("\r\n\r\n")

func (r *headRecorder) Read(p []byte) (int, error) {
	n, err := r.Conn.Read(p)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done && n > 0 {
		r.buf.Write(p[:n])
		for !r.done {
			end := bytes.Index(r.buf.Bytes(), endOfHead)
			if end < 0 {
				r.done = r.buf.Len() > maxHeadBytes
				break
			}
			if isInterimHead(r.buf.Bytes()[:end]) {
				r.buf.Next(end + len(endOfHead))
				continue
			}
			r.buf.Truncate(end + len(endOfHead))
			r.done = true
		}
	}
	return n, err
}

// isInterimHead is true for 1xx responses other than 101, which ends HTTP on
// the connection rather than preceding a final response.
func isInterimHead(head []byte) bool {
	statusLine, _, _ := bytes.Cut(head, []byte("\r\n"))
	fields := bytes.Fields(statusLine)
	if len(fields) < 2 {
		return false
	}
	code := fields[1]
	return len(code) == 3 && code[0] == '1' && string(code) != "101"
}

func (r *headRecorder) head() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done || !bytes.HasSuffix(r.buf.Bytes(), endOfHead) {
		return nil, false
	}
	return bytes.Clone(r.buf.Bytes()), true
}

type fetcher struct {
	log         logr.Logger
	requestData *state.RequestData

	host string // as in the URL, Host header, and SNI
	ip   net.IP // where to connect when dialling host; nil to resolve normally

	mu   sync.Mutex
	last *headRecorder // conn of the most recent request; keep-alives are off so it's the final response's
}

// FetchHTTPS GETs https://host/path, connecting to ip if given. HTTP/1.1 only,
// so the response head can be read off the wire.
func FetchHTTPS(ctx context.Context, log logr.Logger, requestData *state.RequestData, host string, ip net.IP) (*state.HTTPResponse, error) {
	f := &fetcher{
		log:         log.WithName("https").WithValues("host", host),
		requestData: requestData,
		host:        host,
		ip:          ip,
	}

	client := f.client()
	req, cancel, err := f.request(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	res := &state.HTTPResponse{URL: req.URL.String()}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		f.log.V(1).Info("Following redirect", "to", req.URL.String())
		res.Redirects = append(res.Redirects, req.URL.String())
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTP, err)
	}
	defer resp.Body.Close()

	res.Proto = resp.Proto
	res.StatusCode = resp.StatusCode
	res.Status = resp.Status
	res.ContentLength = resp.ContentLength
	res.Server = resp.Header.Get("server")
	res.ContentType = resp.Header.Get("content-type")
	_, res.HasContentType = resp.Header["Content-Type"]

	if head, ok := f.head(); ok {
		res.Headers = parser.ParseHeaderBlock(head)
		res.HeadersFromWire = true
	} else {
		f.log.Info("Didn't capture raw response head; header order will be lost")
		res.Headers = parser.HeadersFromMap(resp.Header)
	}

	res.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrHTTP, err)
	}

	return res, nil
}

func (f *fetcher) client() *http.Client {
	tr := &http.Transport{
		DialTLSContext:        f.dialTLS,
		TLSHandshakeTimeout:   f.requestData.Timeout,
		ResponseHeaderTimeout: f.requestData.Timeout,
		DisableKeepAlives:     true,
		DisableCompression:    true,
		ForceAttemptHTTP2:     false,
		// Non-nil empty map disables h2 even if something upgrades the config
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}
	return &http.Client{Transport: tr}
}

func (f *fetcher) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	// Only pin the address for our own host; redirects elsewhere resolve normally
	dialAddr := addr
	if f.ip != nil && host == f.host {
		dialAddr = net.JoinHostPort(f.ip.String(), port)
	}

	dialer := &net.Dialer{Timeout: f.requestData.Timeout}
	conn, err := dialer.DialContext(ctx, network, dialAddr)
	if err != nil {
		return nil, err
	}
	f.log.V(1).Info("Connected", "to", conn.RemoteAddr(), "from", conn.LocalAddr())

	tlsConn := tls.Client(conn, tlsClientConfig(f.requestData, host, []string{"http/1.1"}))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	rec := &headRecorder{Conn: tlsConn}
	f.mu.Lock()
	f.last = rec
	f.mu.Unlock()

	return rec, nil
}

func (f *fetcher) head() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return nil, false
	}
	return f.last.head()
}

func (f *fetcher) request(ctx context.Context) (*http.Request, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, f.requestData.Timeout)

	pathParts, err := url.Parse(f.requestData.Path)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: bad path %q: %v", ErrHTTP, f.requestData.Path, err)
	}

	host := f.host
	if f.requestData.Port != state.DefaultPort {
		host = net.JoinHostPort(host, strconv.Itoa(f.requestData.Port))
	} else if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		host = "[" + host + "]"
	}
	l7Addr := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     pathParts.EscapedPath(),
		RawQuery: pathParts.RawQuery,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l7Addr.String(), nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: %v", ErrHTTP, err)
	}
	req.Header.Set("user-agent", f.requestData.UserAgent)

	return req, cancel, nil
}

// tlsClientConfig verifies against the configured roots (nil: system's).
// ServerName is always set as it's what's verified against; crypto/tls leaves
// it out of the ClientHello when it's an IP, as RFC 6066 requires.
func tlsClientConfig(requestData *state.RequestData, host string, alpn []string) *tls.Config {
	return &tls.Config{
		RootCAs:    requestData.RootCAs,
		ServerName: host,
		NextProtos: alpn,
		MinVersion: tls.VersionTLS12,
	}
}
