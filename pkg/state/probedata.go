package state

import (
	"net"
	"strconv"
	"time"

	"github.com/mt-inside/host-inspect/pkg/parser"
)

// Each probe stage produces one of these. They're written once, by the stage,
// and only read after that.

const (
	SourceLiteral = "literal"
	SourceDNS     = "DNS"
)

type DNSResult struct {
	Query string // as given
	FQDN  string // ASCII, with whichever search-path suffix answered

	IP     net.IP // the one we use
	Server string // host:port that answered, or the first configured one when the system resolver did
	Source string // SourceLiteral, SourceDNS, or the system resolver's name

	Addrs         []net.IP
	CNAMEs        []string // chain from FQDN, not including it
	TTL           time.Duration
	Authoritative bool

	DNSSECChecked bool
	DNSSECErr     error

	RevNames []string
}

type EndpointTuple struct {
	LocalIP    net.IP
	LocalPort  int
	RemoteIP   net.IP
	RemotePort int
}

func (e EndpointTuple) Local() string {
	return net.JoinHostPort(e.LocalIP.String(), strconv.Itoa(e.LocalPort))
}
func (e EndpointTuple) Remote() string {
	return net.JoinHostPort(e.RemoteIP.String(), strconv.Itoa(e.RemotePort))
}

type HTTPResponse struct {
	URL       string
	Redirects []string // each URL we were sent to, in order

	Proto      string
	StatusCode int // stdlib has no special type for this
	Status     string

	// Wire order and casing where we captured the raw head, else sorted by name
	Headers         []parser.Header
	HeadersFromWire bool

	ContentType    string
	HasContentType bool
	Server         string
	ContentLength  int64 // as claimed; -1 if unknown
	Body           []byte
}

type TLSInfo struct {
	ServerName  string // SNI sent, empty for IP targets
	Version     uint16
	CipherSuite uint16
	ALPN        string
	OCSPStapled bool
	ChainLen    int
}
