package probes

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-logr/logr"

	"github.com/mt-inside/host-inspect/pkg/state"
)

// Sent once the handshake's done; the response is never read.
const placeholderRequest = "GET / HTTP/1.0\r\n\r\n"

// TLSSession is an established, verified TLS connection and what was
// negotiated on it. Close it when done.
type TLSSession struct {
	conn *tls.Conn

	ServerName  string
	Version     uint16
	CipherSuite uint16
	ALPN        string
	OCSPStapled bool

	// Peer's chain as sent, leaf first, DER. Possibly empty.
	Chain [][]byte
}

func (t *TLSSession) Close() error {
	return t.conn.Close()
}

func (t *TLSSession) Leaf() ([]byte, bool) {
	if len(t.Chain) == 0 {
		return nil, false
	}
	return t.Chain[0], true
}

func (t *TLSSession) Info() *state.TLSInfo {
	return &state.TLSInfo{
		ServerName:  t.ServerName,
		Version:     t.Version,
		CipherSuite: t.CipherSuite,
		ALPN:        t.ALPN,
		OCSPStapled: t.OCSPStapled,
		ChainLen:    len(t.Chain),
	}
}

// InspectTLS handshakes with ip:port as host. Trust evaluation is crypto/tls's;
// an untrusted, expired, or misnamed chain is an error like any other.
func InspectTLS(ctx context.Context, log logr.Logger, requestData *state.RequestData, host string, ip net.IP) (*TLSSession, error) {
	log = log.WithName("tls")

	ctx, cancel := context.WithTimeout(ctx, requestData.Timeout)
	defer cancel()

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(requestData.Port))
	dialer := &net.Dialer{Timeout: requestData.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to %s: %v", ErrTLS, addr, err)
	}
	log.V(1).Info("Connected", "to", conn.RemoteAddr(), "from", conn.LocalAddr())

	cfg := tlsClientConfig(requestData, host, []string{"http/1.1"})
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		log.V(1).Info("Cert verification finished", "certs", len(cs.PeerCertificates))
		return nil
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: handshake with %s: %v", ErrTLS, addr, err)
	}

	deadline, _ := ctx.Deadline()
	_ = tlsConn.SetWriteDeadline(deadline)
	if _, err := tlsConn.Write([]byte(placeholderRequest)); err != nil {
		// We've got what we came for; note it and carry on
		log.V(1).Info("Writing request line failed", "error", err)
	}
	_ = tlsConn.SetWriteDeadline(time.Time{})

	cs := tlsConn.ConnectionState()
	sess := &TLSSession{
		conn:        tlsConn,
		ServerName:  cs.ServerName, // as sent, so empty for IPs
		Version:     cs.Version,
		CipherSuite: cs.CipherSuite,
		ALPN:        cs.NegotiatedProtocol,
		OCSPStapled: len(cs.OCSPResponse) > 0,
	}
	for _, c := range cs.PeerCertificates {
		sess.Chain = append(sess.Chain, c.Raw)
	}
	log.V(1).Info("Handshake complete", "version", tls.VersionName(cs.Version), "chain", len(sess.Chain))

	return sess, nil
}
