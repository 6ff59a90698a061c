package codec

import (
	"encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

type KeyKind int

const (
	KeyOther KeyKind = iota
	KeyRSA
	KeyEC
)

func (k KeyKind) String() string {
	switch k {
	case KeyRSA:
		return "RSA"
	case KeyEC:
		return "EC"
	default:
		return "other"
	}
}

// PublicKey is a tagged union; which fields are set depends on Kind.
// Byte fields are big-endian with no sign padding.
type PublicKey struct {
	Algorithm AlgorithmIdentifier
	Kind      KeyKind

	// RSA
	Modulus  []byte
	Exponent []byte

	// EC
	Curve string
	Point []byte

	// Other
	Raw []byte
}

// Bits is the key size: modulus length for RSA, field size for EC.
func (k PublicKey) Bits() int {
	switch k.Kind {
	case KeyRSA:
		return len(k.Modulus) * 8
	case KeyEC:
		// Uncompressed point is 04 || X || Y
		if len(k.Point) > 1 && k.Point[0] == 0x04 {
			return (len(k.Point) - 1) / 2 * 8
		}
		return 0
	default:
		return 0
	}
}

/* SubjectPublicKeyInfo ::= SEQUENCE {
*      algorithm        AlgorithmIdentifier,
*      subjectPublicKey BIT STRING }
*
* RSAPublicKey ::= SEQUENCE {
*      modulus         INTEGER,
*      publicExponent  INTEGER }
 */
func parsePublicKey(spki cryptobyte.String) (PublicKey, error) {
	algo, params, err := parseAlgorithmIdentifier(&spki, publicKeyAlgorithmNames)
	if err != nil {
		return PublicKey{}, err
	}
	pk := PublicKey{Algorithm: algo}

	var keyBits asn1.BitString
	if !spki.ReadASN1BitString(&keyBits) || keyBits.BitLength%8 != 0 {
		return pk, parseErr("malformed subjectPublicKey")
	}
	key := keyBits.Bytes

	switch {
	case algo.OID.Equal(oidPublicKeyRSA):
		var rsaKey cryptobyte.String
		var modulus, exponent cryptobyte.String
		der := cryptobyte.String(key)
		if !der.ReadASN1(&rsaKey, cbasn1.SEQUENCE) ||
			!rsaKey.ReadASN1(&modulus, cbasn1.INTEGER) ||
			!rsaKey.ReadASN1(&exponent, cbasn1.INTEGER) {
			return pk, parseErr("malformed RSA public key")
		}
		pk.Kind = KeyRSA
		pk.Modulus = stripLeadingZeros(modulus)
		pk.Exponent = stripLeadingZeros(exponent)

	case algo.OID.Equal(oidPublicKeyECDSA):
		pk.Kind = KeyEC
		pk.Point = key
		var curve asn1.ObjectIdentifier
		if params.PeekASN1Tag(cbasn1.OBJECT_IDENTIFIER) && params.ReadASN1ObjectIdentifier(&curve) {
			pk.Curve = nameOrDotted(curveNames, curve)
		} else {
			// explicit curve parameters; legal, vanishingly rare
			pk.Curve = "explicit"
		}

	default:
		pk.Kind = KeyOther
		pk.Raw = key
	}

	return pk, nil
}

// INTEGER content is two's complement, so a positive value with its top bit set gets a 00 pad
func stripLeadingZeros(bs []byte) []byte {
	for len(bs) > 1 && bs[0] == 0 {
		bs = bs[1:]
	}
	return bs
}
