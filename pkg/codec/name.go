package codec

import (
	"encoding/asn1"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/mt-inside/host-inspect/pkg/utils"
)

type Attribute struct {
	OID   asn1.ObjectIdentifier
	Type  string // short name, or dotted OID if we don't know it
	Value string
}

// Name is a distinguished name, RDNs kept in DER order.
type Name struct {
	RDNs [][]Attribute
}

func (n Name) String() string {
	rdns := make([]string, 0, len(n.RDNs))
	for _, rdn := range n.RDNs {
		atvs := make([]string, 0, len(rdn))
		for _, atv := range rdn {
			atvs = append(atvs, atv.Type+"="+atv.Value)
		}
		rdns = append(rdns, strings.Join(atvs, " + "))
	}
	return strings.Join(rdns, ", ")
}

// CommonName is the last CN, as that's the most specific.
func (n Name) CommonName() string {
	cn := ""
	for _, rdn := range n.RDNs {
		for _, atv := range rdn {
			if atv.Type == "CN" {
				cn = atv.Value
			}
		}
	}
	return cn
}

/* Name ::= RDNSequence
* RDNSequence ::= SEQUENCE OF RelativeDistinguishedName
* RelativeDistinguishedName ::= SET SIZE (1..MAX) OF AttributeTypeAndValue
* AttributeTypeAndValue ::= SEQUENCE { type OBJECT IDENTIFIER, value ANY }
 */
func parseName(der cryptobyte.String) (Name, error) {
	var n Name
	for !der.Empty() {
		var set cryptobyte.String
		if !der.ReadASN1(&set, cbasn1.SET) {
			return n, parseErr("malformed RDN")
		}

		var rdn []Attribute
		for !set.Empty() {
			var atv cryptobyte.String
			var oid asn1.ObjectIdentifier
			var value cryptobyte.String
			var tag cbasn1.Tag
			if !set.ReadASN1(&atv, cbasn1.SEQUENCE) ||
				!atv.ReadASN1ObjectIdentifier(&oid) ||
				!atv.ReadAnyASN1(&value, &tag) {
				return n, parseErr("malformed attribute")
			}

			s, err := decodeDirectoryString(tag, value)
			if err != nil {
				return n, err
			}
			rdn = append(rdn, Attribute{OID: oid, Type: nameOrDotted(attributeNames, oid), Value: s})
		}
		n.RDNs = append(n.RDNs, rdn)
	}
	return n, nil
}

const (
	tagNumericString   = cbasn1.Tag(18)
	tagUniversalString = cbasn1.Tag(28)
	tagBMPString       = cbasn1.Tag(30)
)

func decodeDirectoryString(tag cbasn1.Tag, value []byte) (string, error) {
	switch tag {
	case cbasn1.UTF8String:
		if !utf8.Valid(value) {
			return "", parseErr("invalid UTF8String")
		}
		return string(value), nil
	case cbasn1.PrintableString, cbasn1.IA5String, tagNumericString:
		return string(value), nil
	case cbasn1.T61String:
		// Treated as Latin-1, which is what every CA that's used it meant.
		rs := make([]rune, 0, len(value))
		for _, b := range value {
			rs = append(rs, rune(b))
		}
		return string(rs), nil
	case tagBMPString:
		if len(value)%2 != 0 {
			return "", parseErr("odd-length BMPString")
		}
		u16s := make([]uint16, 0, len(value)/2)
		for i := 0; i < len(value); i += 2 {
			u16s = append(u16s, uint16(value[i])<<8|uint16(value[i+1]))
		}
		return string(utf16.Decode(u16s)), nil
	case tagUniversalString:
		if len(value)%4 != 0 {
			return "", parseErr("bad-length UniversalString")
		}
		rs := make([]rune, 0, len(value)/4)
		for i := 0; i < len(value); i += 4 {
			rs = append(rs, rune(value[i])<<24|rune(value[i+1])<<16|rune(value[i+2])<<8|rune(value[i+3]))
		}
		return string(rs), nil
	default:
		// Not a string type we know; show the bytes rather than fail the whole cert
		return "#" + strings.ToLower(utils.Hex(value)), nil
	}
}
