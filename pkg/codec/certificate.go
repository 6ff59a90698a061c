package codec

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/mt-inside/host-inspect/pkg/utils"
)

var ErrCertParse = errors.New("malformed certificate")

type AlgorithmIdentifier struct {
	OID  asn1.ObjectIdentifier
	Name string
}

func (a AlgorithmIdentifier) String() string {
	if a.Name == a.OID.String() {
		return a.Name
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.OID)
}

// DecodedCertificate is everything we show about a certificate, pulled
// straight out of its DER. It's built once by DecodeCertificate and not
// modified after.
type DecodedCertificate struct {
	Version int // 1-based, ie what humans call "v3"

	SerialNumber *big.Int
	Signature    AlgorithmIdentifier

	Issuer  Name
	Subject Name

	NotBefore time.Time
	NotAfter  time.Time

	PublicKey  PublicKey
	Extensions []Extension

	SignatureValue []byte
}

func (c *DecodedCertificate) SerialDecimal() string {
	return c.SerialNumber.String()
}

func (c *DecodedCertificate) SerialHex() string {
	bs := c.SerialNumber.Bytes()
	if len(bs) == 0 {
		bs = []byte{0}
	}
	if c.SerialNumber.Sign() < 0 {
		return "-" + utils.ColonHex(bs)
	}
	return utils.ColonHex(bs)
}

func (c *DecodedCertificate) SelfIssued() bool {
	return c.Issuer.String() == c.Subject.String()
}

func parseErr(what string) error {
	return fmt.Errorf("%w: %s", ErrCertParse, what)
}

/* Certificate  ::=  SEQUENCE  {
*      tbsCertificate       TBSCertificate,
*      signatureAlgorithm   AlgorithmIdentifier,
*      signatureValue       BIT STRING  }
*
* TBSCertificate  ::=  SEQUENCE  {
*      version         [0]  EXPLICIT Version DEFAULT v1,
*      serialNumber         CertificateSerialNumber,
*      signature            AlgorithmIdentifier,
*      issuer               Name,
*      validity             Validity,
*      subject              Name,
*      subjectPublicKeyInfo SubjectPublicKeyInfo,
*      issuerUniqueID  [1]  IMPLICIT UniqueIdentifier OPTIONAL,
*      subjectUniqueID [2]  IMPLICIT UniqueIdentifier OPTIONAL,
*      extensions      [3]  EXPLICIT Extensions OPTIONAL }
 */

// DecodeCertificate walks a single DER-encoded X.509 certificate. Every error
// it returns wraps ErrCertParse.
func DecodeCertificate(der []byte) (*DecodedCertificate, error) {
	input := cryptobyte.String(der)

	var cert cryptobyte.String
	if !input.ReadASN1(&cert, cbasn1.SEQUENCE) {
		return nil, parseErr("not a DER SEQUENCE")
	}
	if !input.Empty() {
		return nil, parseErr("trailing data after certificate")
	}

	var tbs cryptobyte.String
	if !cert.ReadASN1(&tbs, cbasn1.SEQUENCE) {
		return nil, parseErr("malformed tbsCertificate")
	}

	dc := &DecodedCertificate{}

	/* Version */

	dc.Version = 1
	var versionWrapper cryptobyte.String
	var hasVersion bool
	if !tbs.ReadOptionalASN1(&versionWrapper, &hasVersion, cbasn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, parseErr("malformed version")
	}
	if hasVersion {
		var v int64
		if !versionWrapper.ReadASN1Int64WithTag(&v, cbasn1.INTEGER) || v < 0 || v > 2 {
			return nil, parseErr("malformed version")
		}
		dc.Version = int(v) + 1
	}

	/* Serial */

	dc.SerialNumber = new(big.Int)
	if !tbs.ReadASN1Integer(dc.SerialNumber) {
		return nil, parseErr("malformed serial number")
	}

	/* Inner signature algorithm - should match the outer one, which is the one we report */

	if !tbs.SkipASN1(cbasn1.SEQUENCE) {
		return nil, parseErr("malformed tbsCertificate signature algorithm")
	}

	/* Names and validity */

	var err error
	var issuer cryptobyte.String
	if !tbs.ReadASN1(&issuer, cbasn1.SEQUENCE) {
		return nil, parseErr("malformed issuer")
	}
	if dc.Issuer, err = parseName(issuer); err != nil {
		return nil, err
	}

	var validity cryptobyte.String
	if !tbs.ReadASN1(&validity, cbasn1.SEQUENCE) {
		return nil, parseErr("malformed validity")
	}
	if dc.NotBefore, err = parseTime(&validity); err != nil {
		return nil, err
	}
	if dc.NotAfter, err = parseTime(&validity); err != nil {
		return nil, err
	}

	var subject cryptobyte.String
	if !tbs.ReadASN1(&subject, cbasn1.SEQUENCE) {
		return nil, parseErr("malformed subject")
	}
	if dc.Subject, err = parseName(subject); err != nil {
		return nil, err
	}

	/* Public key */

	var spki cryptobyte.String
	if !tbs.ReadASN1(&spki, cbasn1.SEQUENCE) {
		return nil, parseErr("malformed subjectPublicKeyInfo")
	}
	if dc.PublicKey, err = parsePublicKey(spki); err != nil {
		return nil, err
	}

	/* Unique IDs (v2+, never seen in the wild) and extensions (v3) */

	if !tbs.SkipOptionalASN1(cbasn1.Tag(1).ContextSpecific()) ||
		!tbs.SkipOptionalASN1(cbasn1.Tag(2).ContextSpecific()) {
		return nil, parseErr("malformed unique identifier")
	}

	var extsWrapper cryptobyte.String
	var hasExts bool
	if !tbs.ReadOptionalASN1(&extsWrapper, &hasExts, cbasn1.Tag(3).Constructed().ContextSpecific()) {
		return nil, parseErr("malformed extensions")
	}
	if hasExts {
		var exts cryptobyte.String
		if !extsWrapper.ReadASN1(&exts, cbasn1.SEQUENCE) {
			return nil, parseErr("malformed extensions")
		}
		if dc.Extensions, err = parseExtensions(exts); err != nil {
			return nil, err
		}
	}

	if !tbs.Empty() {
		return nil, parseErr("trailing data in tbsCertificate")
	}

	/* Outer signature */

	if dc.Signature, _, err = parseAlgorithmIdentifier(&cert, signatureAlgorithmNames); err != nil {
		return nil, err
	}

	var sig asn1.BitString
	if !cert.ReadASN1BitString(&sig) {
		return nil, parseErr("malformed signature value")
	}
	dc.SignatureValue = sig.RightAlign()

	if !cert.Empty() {
		return nil, parseErr("trailing data in certificate")
	}

	return dc, nil
}

// parseAlgorithmIdentifier also returns the raw parameters (NULL, a curve OID,
// PSS params, or nothing) for callers that care.
func parseAlgorithmIdentifier(s *cryptobyte.String, names []oidName) (AlgorithmIdentifier, cryptobyte.String, error) {
	var algo cryptobyte.String
	var oid asn1.ObjectIdentifier
	if !s.ReadASN1(&algo, cbasn1.SEQUENCE) || !algo.ReadASN1ObjectIdentifier(&oid) {
		return AlgorithmIdentifier{}, nil, parseErr("malformed algorithm identifier")
	}
	return AlgorithmIdentifier{OID: oid, Name: nameOrDotted(names, oid)}, algo, nil
}

func parseTime(s *cryptobyte.String) (time.Time, error) {
	var t time.Time
	switch {
	case s.PeekASN1Tag(cbasn1.UTCTime):
		if !s.ReadASN1UTCTime(&t) {
			return t, parseErr("malformed UTCTime")
		}
	case s.PeekASN1Tag(cbasn1.GeneralizedTime):
		if !s.ReadASN1GeneralizedTime(&t) {
			return t, parseErr("malformed GeneralizedTime")
		}
	default:
		return t, parseErr("unsupported time type")
	}
	return t, nil
}
