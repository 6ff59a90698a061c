package utils

import "net"

// RFC 6066 §3 (https://www.rfc-editor.org/rfc/rfc6066)
// - DNS names only
// - No ports
// - No literal IPs
// The fallback host has to pass, as it's requested by name alone.
func ServerNameConformant(sn string) bool {
	if sn == "" {
		return false
	}
	// No IPs
	if ip := net.ParseIP(sn); ip != nil {
		return false
	}
	// No ports
	if _, _, err := net.SplitHostPort(sn); err == nil {
		return false
	}
	return true
}
