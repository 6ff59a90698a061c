package state

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func setFlags(t *testing.T, overrides map[string]interface{}) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("target", "example.com")
	viper.Set("fallback-host", "google.fr")
	viper.Set("path", "/")
	viper.Set("timeout", 10*time.Second)
	viper.Set("trace-timeout", 20*time.Second)
	viper.Set("max-hops", 15)
	viper.Set("resolv-conf", "/etc/resolv.conf")
	viper.Set("trace", true)
	for k, v := range overrides {
		viper.Set(k, v)
	}
}

func TestRequestDataDefaults(t *testing.T) {
	setFlags(t, nil)

	rd, err := RequestDataFromViper()
	require.NoError(t, err)
	require.Equal(t, "example.com", rd.Target)
	require.Equal(t, "google.fr", rd.FallbackHost)
	require.Equal(t, DefaultPort, rd.Port)
	require.Equal(t, "/", rd.Path)
	require.Equal(t, 10*time.Second, rd.Timeout)
	require.Equal(t, 15, rd.MaxHops)
	require.True(t, rd.Trace)
	require.False(t, rd.DNSSEC)
	require.Nil(t, rd.RootCAs)
	require.Contains(t, rd.UserAgent, "host-inspect/")
}

func TestRequestDataPathGetsSlash(t *testing.T) {
	setFlags(t, map[string]interface{}{"path": "index.html"})

	rd, err := RequestDataFromViper()
	require.NoError(t, err)
	require.Equal(t, "/index.html", rd.Path)
}

func TestRequestDataNoFallback(t *testing.T) {
	setFlags(t, map[string]interface{}{"fallback-host": ""})

	rd, err := RequestDataFromViper()
	require.NoError(t, err)
	require.Empty(t, rd.FallbackHost)
}

func TestRequestDataRejects(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"no target":          {"target": ""},
		"fallback with port": {"fallback-host": "google.fr:443"},
		"fallback IP":        {"fallback-host": "192.0.2.1"},
		"zero timeout":       {"timeout": time.Duration(0)},
		"zero trace timeout": {"trace-timeout": time.Duration(0)},
		"no hops":            {"max-hops": 0},
		"too many hops":      {"max-hops": 256},
		"missing CA file":    {"ca": filepath.Join(t.TempDir(), "nope.pem")},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			setFlags(t, overrides)
			_, err := RequestDataFromViper()
			require.Error(t, err)
		})
	}
}

func TestRequestDataCABundle(t *testing.T) {
	dir := t.TempDir()

	junk := filepath.Join(dir, "junk.pem")
	require.NoError(t, os.WriteFile(junk, []byte("not a cert"), 0o600))
	setFlags(t, map[string]interface{}{"ca": junk})
	_, err := RequestDataFromViper()
	require.ErrorContains(t, err, "no PEM certificates")

	good := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(good, caPEM(t), 0o600))
	setFlags(t, map[string]interface{}{"ca": good})
	rd, err := RequestDataFromViper()
	require.NoError(t, err)
	require.NotNil(t, rd.RootCAs)
}

func caPEM(t *testing.T) []byte {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "host-inspect test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
