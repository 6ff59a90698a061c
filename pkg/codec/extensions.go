package codec

import (
	"encoding/asn1"
	"fmt"
	"net"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/mt-inside/host-inspect/pkg/utils"
)

type Extension struct {
	OID      asn1.ObjectIdentifier
	Name     string
	Critical bool

	// Value is a human rendering if we know how to decode this extension,
	// otherwise the hex of the raw extnValue.
	Value   string
	Decoded bool
	Raw     []byte
}

/* Extensions ::= SEQUENCE SIZE (1..MAX) OF Extension
*
* Extension ::= SEQUENCE {
*      extnID      OBJECT IDENTIFIER,
*      critical    BOOLEAN DEFAULT FALSE,
*      extnValue   OCTET STRING }
 */
func parseExtensions(der cryptobyte.String) ([]Extension, error) {
	var exts []Extension
	for !der.Empty() {
		var ext cryptobyte.String
		var oid asn1.ObjectIdentifier
		if !der.ReadASN1(&ext, cbasn1.SEQUENCE) || !ext.ReadASN1ObjectIdentifier(&oid) {
			return nil, parseErr("malformed extension")
		}

		critical := false
		if ext.PeekASN1Tag(cbasn1.BOOLEAN) {
			if !ext.ReadASN1Boolean(&critical) {
				return nil, parseErr("malformed extension critical flag")
			}
		}

		var value cryptobyte.String
		if !ext.ReadASN1(&value, cbasn1.OCTET_STRING) || !ext.Empty() {
			return nil, parseErr("malformed extension value")
		}

		e := Extension{
			OID:      oid,
			Name:     nameOrDotted(extensionNames, oid),
			Critical: critical,
			Raw:      value,
		}
		if rendered, ok := renderExtension(oid, value); ok {
			e.Value = rendered
			e.Decoded = true
		} else {
			e.Value = utils.Hex(value)
		}
		exts = append(exts, e)
	}
	return exts, nil
}

// Find returns the first extension with the given dotted OID.
func (c *DecodedCertificate) Find(oid string) (Extension, bool) {
	for _, e := range c.Extensions {
		if e.OID.String() == oid {
			return e, true
		}
	}
	return Extension{}, false
}

type extRenderer func(cryptobyte.String) (string, bool)

var extRenderers = []struct {
	oid    asn1.ObjectIdentifier
	render extRenderer
}{
	{oidExtBasicConstraints, renderBasicConstraints},
	{oidExtKeyUsage, renderKeyUsage},
	{oidExtExtendedKeyUsage, renderExtKeyUsage},
	{oidExtSubjectAltName, renderGeneralNamesExt},
	{oidExtIssuerAltName, renderGeneralNamesExt},
	{oidExtSubjectKeyID, renderSubjectKeyID},
	{oidExtAuthorityKeyID, renderAuthorityKeyID},
	{oidExtAuthorityInfo, renderAuthorityInfo},
	{oidExtCRLDistPoints, renderCRLDistPoints},
	{oidExtCertPolicies, renderCertPolicies},
	{oidExtSCTList, renderSCTList},
	{oidExtCTPoison, renderCTPoison},
}

// A renderer that can't make sense of its input says so, and the caller falls
// back to hex; a weird extension never fails the certificate.
func renderExtension(oid asn1.ObjectIdentifier, value cryptobyte.String) (string, bool) {
	for _, r := range extRenderers {
		if r.oid.Equal(oid) {
			return r.render(value)
		}
	}
	return "", false
}

func renderBasicConstraints(der cryptobyte.String) (string, bool) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cbasn1.SEQUENCE) || !der.Empty() {
		return "", false
	}

	ca := false
	if seq.PeekASN1Tag(cbasn1.BOOLEAN) && !seq.ReadASN1Boolean(&ca) {
		return "", false
	}
	out := utils.Ternary(ca, "CA:TRUE", "CA:FALSE")

	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		var pathLen int64
		if !seq.ReadASN1Int64WithTag(&pathLen, cbasn1.INTEGER) {
			return "", false
		}
		out += fmt.Sprintf(", pathlen:%d", pathLen)
	}
	return out, seq.Empty()
}

var keyUsageBits = []string{
	"digitalSignature",
	"nonRepudiation",
	"keyEncipherment",
	"dataEncipherment",
	"keyAgreement",
	"keyCertSign",
	"cRLSign",
	"encipherOnly",
	"decipherOnly",
}

func renderKeyUsage(der cryptobyte.String) (string, bool) {
	var bits asn1.BitString
	if !der.ReadASN1BitString(&bits) || !der.Empty() {
		return "", false
	}
	var usages []string
	for i, name := range keyUsageBits {
		if bits.At(i) == 1 {
			usages = append(usages, name)
		}
	}
	return strings.Join(usages, ", "), true
}

func renderExtKeyUsage(der cryptobyte.String) (string, bool) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cbasn1.SEQUENCE) || !der.Empty() {
		return "", false
	}
	var usages []string
	for !seq.Empty() {
		var oid asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&oid) {
			return "", false
		}
		usages = append(usages, nameOrDotted(extKeyUsageNames, oid))
	}
	return strings.Join(usages, ", "), true
}

func renderGeneralNamesExt(der cryptobyte.String) (string, bool) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cbasn1.SEQUENCE) || !der.Empty() {
		return "", false
	}
	names, ok := readGeneralNames(seq)
	if !ok {
		return "", false
	}
	return strings.Join(names, ", "), true
}

/* GeneralName ::= CHOICE {
*      otherName                 [0] OtherName,
*      rfc822Name                [1] IA5String,
*      dNSName                   [2] IA5String,
*      x400Address               [3] ORAddress,
*      directoryName             [4] Name,
*      ediPartyName              [5] EDIPartyName,
*      uniformResourceIdentifier [6] IA5String,
*      iPAddress                 [7] OCTET STRING,
*      registeredID              [8] OBJECT IDENTIFIER }
 */
var (
	tagGNOther   = cbasn1.Tag(0).Constructed().ContextSpecific()
	tagGNEmail   = cbasn1.Tag(1).ContextSpecific()
	tagGNDNS     = cbasn1.Tag(2).ContextSpecific()
	tagGNDirName = cbasn1.Tag(4).Constructed().ContextSpecific()
	tagGNURI     = cbasn1.Tag(6).ContextSpecific()
	tagGNIP      = cbasn1.Tag(7).ContextSpecific()
	tagGNRegID   = cbasn1.Tag(8).ContextSpecific()
)

func readGeneralNames(der cryptobyte.String) ([]string, bool) {
	var names []string
	for !der.Empty() {
		var value cryptobyte.String
		var tag cbasn1.Tag
		if !der.ReadAnyASN1(&value, &tag) {
			return nil, false
		}
		names = append(names, renderGeneralName(tag, value))
	}
	return names, true
}

func renderGeneralName(tag cbasn1.Tag, value cryptobyte.String) string {
	switch tag {
	case tagGNEmail:
		return "email:" + string(value)
	case tagGNDNS:
		return "DNS:" + string(value)
	case tagGNURI:
		return "URI:" + string(value)
	case tagGNIP:
		if len(value) == net.IPv4len || len(value) == net.IPv6len {
			return "IP Address:" + net.IP(value).String()
		}
		// Name constraints carry address+mask here
		return "IP Address:" + utils.ColonHex(value)
	case tagGNDirName:
		var name cryptobyte.String
		if value.ReadASN1(&name, cbasn1.SEQUENCE) {
			if n, err := parseName(name); err == nil {
				return "DirName:" + n.String()
			}
		}
		return "DirName:<unparsable>"
	case tagGNRegID:
		// IMPLICIT, so the content octets are a bare OID body; re-wrap it to reuse the OID reader
		var b cryptobyte.Builder
		b.AddASN1(cbasn1.OBJECT_IDENTIFIER, func(b *cryptobyte.Builder) { b.AddBytes(value) })
		var oid asn1.ObjectIdentifier
		if bs, err := b.Bytes(); err == nil {
			s := cryptobyte.String(bs)
			if s.ReadASN1ObjectIdentifier(&oid) {
				return "Registered ID:" + oid.String()
			}
		}
		return "Registered ID:<unparsable>"
	case tagGNOther:
		return "othername:<unsupported>"
	default:
		return fmt.Sprintf("[%d]:<unsupported>", tag&0x1f)
	}
}

func renderSubjectKeyID(der cryptobyte.String) (string, bool) {
	var id cryptobyte.String
	if !der.ReadASN1(&id, cbasn1.OCTET_STRING) || !der.Empty() {
		return "", false
	}
	return utils.ColonHex(id), true
}

/* AuthorityKeyIdentifier ::= SEQUENCE {
*      keyIdentifier             [0] KeyIdentifier           OPTIONAL,
*      authorityCertIssuer       [1] GeneralNames            OPTIONAL,
*      authorityCertSerialNumber [2] CertificateSerialNumber OPTIONAL }
 */
func renderAuthorityKeyID(der cryptobyte.String) (string, bool) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cbasn1.SEQUENCE) || !der.Empty() {
		return "", false
	}

	var parts []string
	var keyID, issuer, serial cryptobyte.String
	var hasKeyID, hasIssuer, hasSerial bool
	if !seq.ReadOptionalASN1(&keyID, &hasKeyID, cbasn1.Tag(0).ContextSpecific()) ||
		!seq.ReadOptionalASN1(&issuer, &hasIssuer, cbasn1.Tag(1).Constructed().ContextSpecific()) ||
		!seq.ReadOptionalASN1(&serial, &hasSerial, cbasn1.Tag(2).ContextSpecific()) ||
		!seq.Empty() {
		return "", false
	}
	if hasKeyID {
		parts = append(parts, "keyid:"+utils.ColonHex(keyID))
	}
	if hasIssuer {
		names, ok := readGeneralNames(issuer)
		if !ok {
			return "", false
		}
		parts = append(parts, names...)
	}
	if hasSerial {
		parts = append(parts, "serial:"+utils.ColonHex(serial))
	}
	return strings.Join(parts, ", "), true
}

/* AuthorityInfoAccessSyntax ::= SEQUENCE SIZE (1..MAX) OF AccessDescription
*
* AccessDescription ::= SEQUENCE {
*      accessMethod   OBJECT IDENTIFIER,
*      accessLocation GeneralName }
 */
func renderAuthorityInfo(der cryptobyte.String) (string, bool) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cbasn1.SEQUENCE) || !der.Empty() {
		return "", false
	}

	var parts []string
	for !seq.Empty() {
		var desc cryptobyte.String
		var method asn1.ObjectIdentifier
		var location cryptobyte.String
		var tag cbasn1.Tag
		if !seq.ReadASN1(&desc, cbasn1.SEQUENCE) ||
			!desc.ReadASN1ObjectIdentifier(&method) ||
			!desc.ReadAnyASN1(&location, &tag) {
			return "", false
		}

		label := method.String()
		switch {
		case method.Equal(oidAccessMethodOCSP):
			label = "OCSP"
		case method.Equal(oidAccessMethodCAIssuers):
			label = "CA Issuers"
		}
		parts = append(parts, label+" - "+renderGeneralName(tag, location))
	}
	return strings.Join(parts, ", "), true
}

/* CRLDistributionPoints ::= SEQUENCE SIZE (1..MAX) OF DistributionPoint
*
* DistributionPoint ::= SEQUENCE {
*      distributionPoint [0] DistributionPointName OPTIONAL,
*      reasons           [1] ReasonFlags OPTIONAL,
*      cRLIssuer         [2] GeneralNames OPTIONAL }
*
* DistributionPointName ::= CHOICE {
*      fullName                [0] GeneralNames,
*      nameRelativeToCRLIssuer [1] RelativeDistinguishedName }
 */
func renderCRLDistPoints(der cryptobyte.String) (string, bool) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cbasn1.SEQUENCE) || !der.Empty() {
		return "", false
	}

	var parts []string
	for !seq.Empty() {
		var dp cryptobyte.String
		if !seq.ReadASN1(&dp, cbasn1.SEQUENCE) {
			return "", false
		}

		var dpName cryptobyte.String
		var hasName bool
		if !dp.ReadOptionalASN1(&dpName, &hasName, cbasn1.Tag(0).Constructed().ContextSpecific()) {
			return "", false
		}
		if !hasName {
			continue
		}

		var fullName cryptobyte.String
		var hasFull bool
		if !dpName.ReadOptionalASN1(&fullName, &hasFull, cbasn1.Tag(0).Constructed().ContextSpecific()) {
			return "", false
		}
		if !hasFull {
			parts = append(parts, "<relative name>")
			continue
		}
		names, ok := readGeneralNames(fullName)
		if !ok {
			return "", false
		}
		parts = append(parts, names...)
	}
	return strings.Join(parts, ", "), true
}

/* certificatePolicies ::= SEQUENCE SIZE (1..MAX) OF PolicyInformation
*
* PolicyInformation ::= SEQUENCE {
*      policyIdentifier CertPolicyId,
*      policyQualifiers SEQUENCE SIZE (1..MAX) OF PolicyQualifierInfo OPTIONAL }
 */
func renderCertPolicies(der cryptobyte.String) (string, bool) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cbasn1.SEQUENCE) || !der.Empty() {
		return "", false
	}

	var parts []string
	for !seq.Empty() {
		var info cryptobyte.String
		var oid asn1.ObjectIdentifier
		if !seq.ReadASN1(&info, cbasn1.SEQUENCE) || !info.ReadASN1ObjectIdentifier(&oid) {
			return "", false
		}
		if name, ok := lookupOID(policyNames, oid); ok {
			parts = append(parts, fmt.Sprintf("%s (%s)", oid, name))
		} else {
			parts = append(parts, oid.String())
		}
	}
	return strings.Join(parts, ", "), true
}

// The SCT list is a TLS-encoded blob inside an extra OCTET STRING, per RFC 6962.
func renderSCTList(der cryptobyte.String) (string, bool) {
	var tlsList cryptobyte.String
	if !der.ReadASN1(&tlsList, cbasn1.OCTET_STRING) || !der.Empty() {
		return "", false
	}
	var list cryptobyte.String
	if !tlsList.ReadUint16LengthPrefixed(&list) || !tlsList.Empty() {
		return "", false
	}

	n := 0
	for !list.Empty() {
		var sct cryptobyte.String
		if !list.ReadUint16LengthPrefixed(&sct) {
			return "", false
		}
		n++
	}
	return fmt.Sprintf("%d SCTs", n), true
}

func renderCTPoison(der cryptobyte.String) (string, bool) {
	if !der.SkipASN1(cbasn1.NULL) || !der.Empty() {
		return "", false
	}
	return "precertificate (not valid for TLS)", true
}
