package probes

import (
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mt-inside/host-inspect/pkg/state"
)

// tlsServer is an httptest TLS server; its cert is valid for example.com,
// 127.0.0.1 and ::1.
func tlsServer(t *testing.T, h http.Handler) *httptest.Server {
	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func serverPort(t *testing.T, srv *httptest.Server) int {
	_, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

// requestDataFor trusts srv's cert if trust is set, otherwise only the system
// roots, which won't include it.
func requestDataFor(t *testing.T, srv *httptest.Server, trust bool) *state.RequestData {
	rd := &state.RequestData{
		Target:       "example.com",
		Port:         serverPort(t, srv),
		Path:         "/",
		Timeout:      5 * time.Second,
		TraceTimeout: 5 * time.Second,
		MaxHops:      15,
		UserAgent:    "host-inspect-test",
	}
	if trust {
		pool := x509.NewCertPool()
		pool.AddCert(srv.Certificate())
		rd.RootCAs = pool
	}
	return rd
}

var loopback = net.ParseIP("127.0.0.1")
