package probes

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/mt-inside/host-inspect/pkg/codec"
)

func TestInspectTLSTrusted(t *testing.T) {
	srv := tlsServer(t, http.NotFoundHandler())

	sess, err := InspectTLS(context.Background(), logr.Discard(), requestDataFor(t, srv, true), "example.com", loopback)
	require.NoError(t, err)
	defer sess.Close()

	require.Equal(t, "example.com", sess.ServerName)
	require.GreaterOrEqual(t, sess.Version, uint16(tls.VersionTLS12))
	require.NotZero(t, sess.CipherSuite)
	require.Equal(t, "http/1.1", sess.ALPN)

	leaf, ok := sess.Leaf()
	require.True(t, ok)
	require.Equal(t, srv.Certificate().Raw, leaf)

	info := sess.Info()
	require.Equal(t, len(sess.Chain), info.ChainLen)

	cert, err := codec.DecodeCertificate(leaf)
	require.NoError(t, err)
	require.Equal(t, 0, srv.Certificate().SerialNumber.Cmp(cert.SerialNumber))
	san, ok := cert.Find("2.5.29.17")
	require.True(t, ok)
	require.Contains(t, san.Value, "DNS:example.com")
	require.Contains(t, san.Value, "IP Address:127.0.0.1")
}

func TestInspectTLSIPTarget(t *testing.T) {
	srv := tlsServer(t, http.NotFoundHandler())

	// Verified against the cert's IP SANs; no SNI sent
	sess, err := InspectTLS(context.Background(), logr.Discard(), requestDataFor(t, srv, true), "127.0.0.1", loopback)
	require.NoError(t, err)
	defer sess.Close()
	require.Empty(t, sess.ServerName)
}

func TestInspectTLSUntrusted(t *testing.T) {
	srv := tlsServer(t, http.NotFoundHandler())

	_, err := InspectTLS(context.Background(), logr.Discard(), requestDataFor(t, srv, false), "example.com", loopback)
	require.ErrorIs(t, err, ErrTLS)
}

func TestInspectTLSWrongName(t *testing.T) {
	srv := tlsServer(t, http.NotFoundHandler())

	_, err := InspectTLS(context.Background(), logr.Discard(), requestDataFor(t, srv, true), "not-in-the-cert.test", loopback)
	require.ErrorIs(t, err, ErrTLS)
}

func TestInspectTLSNothingListening(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := tlsServer(t, http.NotFoundHandler())
	rd := requestDataFor(t, srv, true)
	rd.Port = l.Addr().(*net.TCPAddr).Port
	l.Close()

	_, err = InspectTLS(context.Background(), logr.Discard(), rd, "example.com", loopback)
	require.ErrorIs(t, err, ErrTLS)
}
