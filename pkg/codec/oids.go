package codec

import (
	"encoding/asn1"
)

var (
	oidPublicKeyRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidPublicKeyECDSA   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidPublicKeyEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}
	oidPublicKeyEd448   = asn1.ObjectIdentifier{1, 3, 101, 113}
	oidPublicKeyX25519  = asn1.ObjectIdentifier{1, 3, 101, 110}
	oidPublicKeyDSA     = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	oidPublicKeyRSAPSS  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}

	oidExtSubjectKeyID       = asn1.ObjectIdentifier{2, 5, 29, 14}
	oidExtKeyUsage           = asn1.ObjectIdentifier{2, 5, 29, 15}
	oidExtSubjectAltName     = asn1.ObjectIdentifier{2, 5, 29, 17}
	oidExtIssuerAltName      = asn1.ObjectIdentifier{2, 5, 29, 18}
	oidExtBasicConstraints   = asn1.ObjectIdentifier{2, 5, 29, 19}
	oidExtNameConstraints    = asn1.ObjectIdentifier{2, 5, 29, 30}
	oidExtCRLDistPoints      = asn1.ObjectIdentifier{2, 5, 29, 31}
	oidExtCertPolicies       = asn1.ObjectIdentifier{2, 5, 29, 32}
	oidExtAuthorityKeyID     = asn1.ObjectIdentifier{2, 5, 29, 35}
	oidExtExtendedKeyUsage   = asn1.ObjectIdentifier{2, 5, 29, 37}
	oidExtAuthorityInfo      = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}
	oidExtTLSFeature         = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 24}
	oidExtSCTList            = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 2}
	oidExtCTPoison           = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 3}
	oidExtMSCertTemplate     = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 21, 7}
	oidExtNetscapeCertType   = asn1.ObjectIdentifier{2, 16, 840, 1, 113730, 1, 1}
	oidAccessMethodOCSP      = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1}
	oidAccessMethodCAIssuers = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 2}
)

type oidName struct {
	oid  asn1.ObjectIdentifier
	name string
}

// Slices rather than maps, as ObjectIdentifier isn't comparable.
var signatureAlgorithmNames = []oidName{
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 2}, "MD2-RSA"},
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}, "MD5-RSA"},
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}, "SHA1-RSA"},
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}, "RSASSA-PSS"},
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}, "SHA256-RSA"},
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}, "SHA384-RSA"},
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}, "SHA512-RSA"},
	{asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 3}, "DSA-SHA1"},
	{asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 2}, "DSA-SHA256"},
	{asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}, "ECDSA-SHA1"},
	{asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}, "ECDSA-SHA256"},
	{asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}, "ECDSA-SHA384"},
	{asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}, "ECDSA-SHA512"},
	{oidPublicKeyEd25519, "Ed25519"},
	{oidPublicKeyEd448, "Ed448"},
}

var publicKeyAlgorithmNames = []oidName{
	{oidPublicKeyRSA, "RSA"},
	{oidPublicKeyRSAPSS, "RSASSA-PSS"},
	{oidPublicKeyECDSA, "ECDSA"},
	{oidPublicKeyEd25519, "Ed25519"},
	{oidPublicKeyEd448, "Ed448"},
	{oidPublicKeyX25519, "X25519"},
	{oidPublicKeyDSA, "DSA"},
}

var curveNames = []oidName{
	{asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}, "P-256"},
	{asn1.ObjectIdentifier{1, 3, 132, 0, 34}, "P-384"},
	{asn1.ObjectIdentifier{1, 3, 132, 0, 35}, "P-521"},
	{asn1.ObjectIdentifier{1, 3, 132, 0, 10}, "secp256k1"},
	{asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 1}, "P-192"},
	{asn1.ObjectIdentifier{1, 3, 132, 0, 33}, "P-224"},
}

var extensionNames = []oidName{
	{oidExtSubjectKeyID, "subjectKeyIdentifier"},
	{oidExtKeyUsage, "keyUsage"},
	{oidExtSubjectAltName, "subjectAltName"},
	{oidExtIssuerAltName, "issuerAltName"},
	{oidExtBasicConstraints, "basicConstraints"},
	{oidExtNameConstraints, "nameConstraints"},
	{oidExtCRLDistPoints, "cRLDistributionPoints"},
	{oidExtCertPolicies, "certificatePolicies"},
	{oidExtAuthorityKeyID, "authorityKeyIdentifier"},
	{oidExtExtendedKeyUsage, "extKeyUsage"},
	{oidExtAuthorityInfo, "authorityInfoAccess"},
	{oidExtTLSFeature, "tlsFeature"},
	{oidExtSCTList, "ctPrecertificateSCTs"},
	{oidExtCTPoison, "ctPrecertificatePoison"},
	{oidExtMSCertTemplate, "msCertificateTemplate"},
	{oidExtNetscapeCertType, "netscapeCertType"},
}

var extKeyUsageNames = []oidName{
	{asn1.ObjectIdentifier{2, 5, 29, 37, 0}, "any"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 1}, "serverAuth"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 2}, "clientAuth"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 3}, "codeSigning"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 4}, "emailProtection"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 8}, "timeStamping"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 9}, "OCSPSigning"},
}

var policyNames = []oidName{
	{asn1.ObjectIdentifier{2, 23, 140, 1, 1}, "EV"},
	{asn1.ObjectIdentifier{2, 23, 140, 1, 2, 1}, "DV"},
	{asn1.ObjectIdentifier{2, 23, 140, 1, 2, 2}, "OV"},
	{asn1.ObjectIdentifier{2, 23, 140, 1, 2, 3}, "IV"},
	{asn1.ObjectIdentifier{2, 5, 29, 32, 0}, "anyPolicy"},
}

// Short names as printed by openssl; anything unlisted is shown as its dotted OID.
var attributeNames = []oidName{
	{asn1.ObjectIdentifier{2, 5, 4, 3}, "CN"},
	{asn1.ObjectIdentifier{2, 5, 4, 4}, "SN"},
	{asn1.ObjectIdentifier{2, 5, 4, 5}, "serialNumber"},
	{asn1.ObjectIdentifier{2, 5, 4, 6}, "C"},
	{asn1.ObjectIdentifier{2, 5, 4, 7}, "L"},
	{asn1.ObjectIdentifier{2, 5, 4, 8}, "ST"},
	{asn1.ObjectIdentifier{2, 5, 4, 9}, "street"},
	{asn1.ObjectIdentifier{2, 5, 4, 10}, "O"},
	{asn1.ObjectIdentifier{2, 5, 4, 11}, "OU"},
	{asn1.ObjectIdentifier{2, 5, 4, 12}, "title"},
	{asn1.ObjectIdentifier{2, 5, 4, 15}, "businessCategory"},
	{asn1.ObjectIdentifier{2, 5, 4, 17}, "postalCode"},
	{asn1.ObjectIdentifier{2, 5, 4, 42}, "GN"},
	{asn1.ObjectIdentifier{2, 5, 4, 97}, "organizationIdentifier"},
	{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}, "emailAddress"},
	{asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}, "UID"},
	{asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}, "DC"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 60, 2, 1, 1}, "jurisdictionL"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 60, 2, 1, 2}, "jurisdictionST"},
	{asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 60, 2, 1, 3}, "jurisdictionC"},
}

func lookupOID(table []oidName, oid asn1.ObjectIdentifier) (string, bool) {
	for _, e := range table {
		if e.oid.Equal(oid) {
			return e.name, true
		}
	}
	return "", false
}

// nameOrDotted never returns "", so it's always printable.
func nameOrDotted(table []oidName, oid asn1.ObjectIdentifier) string {
	if n, ok := lookupOID(table, oid); ok {
		return n
	}
	return oid.String()
}
