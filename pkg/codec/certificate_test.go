package codec

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt-inside/host-inspect/pkg/utils"
)

// Self-signed, RSA 2048, notAfter far enough out to need GeneralizedTime.
const rsaCertPEM = `
-----BEGIN CERTIFICATE-----
MIIDuDCCAqCgAwIBAgIEEjSrzTANBgkqhkiG9w0BAQsFADBEMQswCQYDVQQGEwJG
UjEaMBgGA1UECgwRSG9zdCBJbnNwZWN0IFRlc3QxGTAXBgNVBAMMEHRlc3QuZXhh
bXBsZS5vcmcwIBcNMjYxMDE4MDIyMzM4WhgPMjEyNjA5MjQwMjIzMzhaMEQxCzAJ
BgNVBAYTAkZSMRowGAYDVQQKDBFIb3N0IEluc3BlY3QgVGVzdDEZMBcGA1UEAwwQ
dGVzdC5leGFtcGxlLm9yZzCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoCggEB
AKp2qQzrsV07jVmKJMX8H9SxTyL9Gy4p0BuQKV/DnpniEUTHHnw0JBQ55B/r4tqq
61X+dmr21wMFqGUJdJqi007a0GqIPgDIRBX6VvuHWNigPYqqbBcZbBgir0Gyncr7
hQu+VLtl5o9BCVyDGWkHXkAnzxqgOiVgfXn2JVmn6NBUIFO40Mz6nCc7bFz2Oy3v
MQVr19cmHaI7y1wSWWqUDtKIX5wSvcTtAzrcFgpqHIgW2/lbbMC99/lwSOm2shuz
V01GLPQzONy078pzRGNOzbHmp4onAndB9bav7tzSNI2jMlruqxiCgHAlAul2gQXS
kRRkmY87tShuSlnp0RlilpECAwEAAaOBrzCBrDAdBgNVHQ4EFgQUzmD9K451oe3E
ahKXqO6w99tLGeIwHwYDVR0jBBgwFoAUzmD9K451oe3EahKXqO6w99tLGeIwNwYD
VR0RBDAwLoIQdGVzdC5leGFtcGxlLm9yZ4IUd3d3LnRlc3QuZXhhbXBsZS5vcmeH
BMAAAgowDgYDVR0PAQH/BAQDAgWgMBMGA1UdJQQMMAoGCCsGAQUFBwMBMAwGA1Ud
EwEB/wQCMAAwDQYJKoZIhvcNAQELBQADggEBAFNSe+0zMmVhbvS0rdk0gY0yq2QS
4OkVRODSpES1Ymg94flTv/q5JAZkeDNbWASSrFxPNObQcnxKyvz+QnxvAjVkgnV2
QTL3LUYh88k2AGBafcXf0J5LN+isNVNI7pnxqS9rQuNyWpselQuN9XTmY5TwtDgj
KDC4rYo+xdYhjOdMa4xqTp8WurtguVI29ujAt77y92klrosV+RkagEmQiXIyymRK
b94ItT+AC3AjEukm2iGByJ/gLhKNyTmmk2qdnxIgUIUzN+Pqp2ZIqTRlSlgCb3JQ
lMsCduKLVgY0s8D5yyPzYC0av5GBrA3VnNuqzWFQ+RegoQnM3rFy+EVoPIQ=
-----END CERTIFICATE-----
`

// www.google.com leaf, P-256, with AIA, CRL DPs, policies, and an SCT list.
const ecCertPEM = `
-----BEGIN CERTIFICATE-----
MIIEVzCCAz+gAwIBAgIRAIsnDh7AqstVCQTDZO49FUQwDQYJKoZIhvcNAQELBQAw
OzELMAkGA1UEBhMCVVMxHjAcBgNVBAoTFUdvb2dsZSBUcnVzdCBTZXJ2aWNlczEM
MAoGA1UEAxMDV1IyMB4XDTI1MTEyNDA4NDEwNVoXDTI2MDIxNjA4NDEwNFowGTEX
MBUGA1UEAxMOd3d3Lmdvb2dsZS5jb20wWTATBgcqhkjOPQIBBggqhkjOPQMBBwNC
AASpOrUKgQJxuBGxizx+kmyx5RrD4jQmo8qLKSuwJqGHq32bVzWZGD67H9R4OZrU
dvyPaKf5c8xcR0dfErljBgc9o4ICQTCCAj0wDgYDVR0PAQH/BAQDAgeAMBMGA1Ud
JQQMMAoGCCsGAQUFBwMBMAwGA1UdEwEB/wQCMAAwHQYDVR0OBBYEFB/jnLpRtZ7i
zZrj5pmoPbY4QlomMB8GA1UdIwQYMBaAFN4bHu15FdQ+NyTDIbvsNDltQrIwMFgG
CCsGAQUFBwEBBEwwSjAhBggrBgEFBQcwAYYVaHR0cDovL28ucGtpLmdvb2cvd3Iy
MCUGCCsGAQUFBzAChhlodHRwOi8vaS5wa2kuZ29vZy93cjIuY3J0MBkGA1UdEQQS
MBCCDnd3dy5nb29nbGUuY29tMBMGA1UdIAQMMAowCAYGZ4EMAQIBMDYGA1UdHwQv
MC0wK6ApoCeGJWh0dHA6Ly9jLnBraS5nb29nL3dyMi9HU3lUMU40UEJyZy5jcmww
ggEEBgorBgEEAdZ5AgQCBIH1BIHyAPAAdwCWl2S/VViXrfdDh2g3CEJ36fA61fak
8zZuRqQ/D8qpxgAAAZq1PQh6AAAEAwBIMEYCIQDkvhCgZXnoybm66RiqqWXZN6qE
VzPoPHn/kyXZ7Y55yAIhALTMfGlCgnC9W0iu+cR9qCmOwsEr5k6Bl7Ub2w7GCUIu
AHUASZybad4dfOz8Nt7Nh2SmuFuvCoeAGdFVUvvp6ynd+MMAAAGatT0IWAAABAMA
RjBEAiBQITcviDubQYQiIxBwjcgmkl4CH1x4RzykXJrp8cCLKwIgFpdUBEBwTjCw
wTjI3H2paYucltfUre6q/vBei3HhNqcwDQYJKoZIhvcNAQELBQADggEBAE+UAURG
T3JZxq6fjAK5Espfe49Wb0mz1kCTwNY56sbYP/Fa+Kb7kVluDIFbMN2rspADwKBu
FR7QVda3zEIu4Hj1DUmD7ecmVYCxLQ241OYdice4AfJTwDVJVymdQPFoLBP27dWK
3izwcfkPSgXIT8nHcEvDvXljn7n+n3XXuzh1Y1vFnFUa5E69JQFXXDuu/a7LiEXx
uB5j0Xga7DgFyHHHnz7zSiFr37NBb0/CH/31fkgaQPj7Fr5dyCMzMg1rQe1FGOM6
fXT8WHASUpqRebQfDy2TPE7sjve2NenS36NeiiVZXhBo5MHvGCBY3W8OYljK4zeU
uugY3q/5At03UHw=
-----END CERTIFICATE-----
`

func der(t *testing.T, p string) []byte {
	t.Helper()
	block, _ := pem.Decode([]byte(p))
	require.NotNil(t, block)
	return block.Bytes
}

func TestDecodeRSA(t *testing.T) {
	raw := der(t, rsaCertPEM)
	c, err := DecodeCertificate(raw)
	require.NoError(t, err)

	require.Equal(t, 3, c.Version)
	require.Equal(t, "305441741", c.SerialDecimal())
	require.Equal(t, "12:34:AB:CD", c.SerialHex())
	require.Equal(t, "SHA256-RSA", c.Signature.Name)

	require.Equal(t, "C=FR, O=Host Inspect Test, CN=test.example.org", c.Subject.String())
	require.Equal(t, c.Subject.String(), c.Issuer.String())
	require.Equal(t, "test.example.org", c.Subject.CommonName())
	require.True(t, c.SelfIssued())

	require.Equal(t, time.Date(2026, time.October, 18, 2, 23, 38, 0, time.UTC), c.NotBefore.UTC())
	require.Equal(t, time.Date(2126, time.September, 24, 2, 23, 38, 0, time.UTC), c.NotAfter.UTC())

	require.Equal(t, KeyRSA, c.PublicKey.Kind)
	require.Equal(t, "RSA", c.PublicKey.Algorithm.Name)
	require.Equal(t, 2048, c.PublicKey.Bits())
	require.Equal(t, "010001", utils.Hex(c.PublicKey.Exponent))
	require.Equal(t, "AA76A90C", utils.Hex(c.PublicKey.Modulus)[:8])

	require.Len(t, c.Extensions, 6)
	names := utils.Map(c.Extensions, func(e Extension) string { return e.Name })
	require.Equal(t,
		[]string{"subjectKeyIdentifier", "authorityKeyIdentifier", "subjectAltName", "keyUsage", "extKeyUsage", "basicConstraints"},
		names,
	)

	ski := c.Extensions[0]
	assert.False(t, ski.Critical)
	assert.Equal(t, "CE:60:FD:2B:8E:75:A1:ED:C4:6A:12:97:A8:EE:B0:F7:DB:4B:19:E2", ski.Value)
	assert.Equal(t, "keyid:"+ski.Value, c.Extensions[1].Value)
	assert.Equal(t, "DNS:test.example.org, DNS:www.test.example.org, IP Address:192.0.2.10", c.Extensions[2].Value)

	ku := c.Extensions[3]
	assert.True(t, ku.Critical)
	assert.Equal(t, "digitalSignature, keyEncipherment", ku.Value)

	assert.Equal(t, "serverAuth", c.Extensions[4].Value)

	bc, ok := c.Find("2.5.29.19")
	require.True(t, ok)
	assert.True(t, bc.Critical)
	assert.True(t, bc.Decoded)
	assert.Equal(t, "CA:FALSE", bc.Value)

	require.Equal(t, "53527BED", utils.Hex(c.SignatureValue)[:8])
}

func TestDecodeEC(t *testing.T) {
	raw := der(t, ecCertPEM)
	c, err := DecodeCertificate(raw)
	require.NoError(t, err)

	require.Equal(t, "184965477381793090646509801846301594948", c.SerialDecimal())
	require.Equal(t, "8B:27:0E:1E:C0:AA:CB:55:09:04:C3:64:EE:3D:15:44", c.SerialHex())
	require.Equal(t, "C=US, O=Google Trust Services, CN=WR2", c.Issuer.String())
	require.Equal(t, "CN=www.google.com", c.Subject.String())
	require.False(t, c.SelfIssued())

	require.Equal(t, KeyEC, c.PublicKey.Kind)
	require.Equal(t, "P-256", c.PublicKey.Curve)
	require.Equal(t, 256, c.PublicKey.Bits())
	require.Len(t, c.PublicKey.Point, 65)
	require.Equal(t, "04A93AB50A", utils.Hex(c.PublicKey.Point)[:10])

	values := map[string]string{}
	for _, e := range c.Extensions {
		require.True(t, e.Decoded, e.Name)
		values[e.Name] = e.Value
	}
	assert.Equal(t, "digitalSignature", values["keyUsage"])
	assert.Equal(t, "www.google.com", values["subjectAltName"][len("DNS:"):])
	assert.Equal(t, "OCSP - URI:http://o.pki.goog/wr2, CA Issuers - URI:http://i.pki.goog/wr2.crt", values["authorityInfoAccess"])
	assert.Equal(t, "URI:http://c.pki.goog/wr2/GSyT1N4PBrg.crl", values["cRLDistributionPoints"])
	assert.Equal(t, "2.23.140.1.2.1 (DV)", values["certificatePolicies"])
	assert.Equal(t, "2 SCTs", values["ctPrecertificateSCTs"])
}

// Cross-check the fields the stdlib also exposes.
func TestDecodeAgreesWithStdlib(t *testing.T) {
	for _, p := range []string{rsaCertPEM, ecCertPEM} {
		raw := der(t, p)
		ours, err := DecodeCertificate(raw)
		require.NoError(t, err)
		theirs, err := x509.ParseCertificate(raw)
		require.NoError(t, err)

		assert.Equal(t, theirs.Version, ours.Version)
		assert.Equal(t, 0, theirs.SerialNumber.Cmp(ours.SerialNumber))
		assert.True(t, theirs.NotBefore.Equal(ours.NotBefore))
		assert.True(t, theirs.NotAfter.Equal(ours.NotAfter))
		assert.Equal(t, theirs.Signature, ours.SignatureValue)
		assert.Equal(t, len(theirs.Extensions), len(ours.Extensions))

		switch pub := theirs.PublicKey.(type) {
		case *rsa.PublicKey:
			assert.Equal(t, pub.N.Bytes(), ours.PublicKey.Modulus)
			assert.Equal(t, big.NewInt(int64(pub.E)).Bytes(), ours.PublicKey.Exponent)
		case *ecdsa.PublicKey:
			assert.Equal(t, pub.Curve.Params().Name, ours.PublicKey.Curve)
		default:
			t.Fatalf("unexpected key type %T", pub)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	good := der(t, rsaCertPEM)

	tcs := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"not a sequence", []byte{0x04, 0x01, 0x00}},
		{"truncated", good[:len(good)/2]},
		{"trailing garbage", append(append([]byte{}, good...), 0x00)},
		{"text", []byte("-----BEGIN CERTIFICATE-----")},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c, err := DecodeCertificate(tc.in)
			require.ErrorIs(t, err, ErrCertParse)
			require.Nil(t, c)
		})
	}
}

func TestDirectoryStrings(t *testing.T) {
	s, err := decodeDirectoryString(tagBMPString, []byte{0x00, 'h', 0x00, 0xe9})
	require.NoError(t, err)
	require.Equal(t, "hé", s)

	s, err = decodeDirectoryString(tagUniversalString, []byte{0, 0, 0, 'x'})
	require.NoError(t, err)
	require.Equal(t, "x", s)

	_, err = decodeDirectoryString(tagBMPString, []byte{0x00})
	require.ErrorIs(t, err, ErrCertParse)
}
