package utils

import (
	"encoding/hex"
	"strings"
)

func Ternary[T any](test bool, a, b T) T {
	if test {
		return a
	}
	return b
}

func Map[T, U any](xs []T, f func(T) U) []U {
	ys := make([]U, 0, len(xs))
	for _, x := range xs {
		ys = append(ys, f(x))
	}
	return ys
}

// Hex renders bytes as contiguous upper-case hex, eg 0A1B2C. Every binary
// field of a decoded certificate (modulus, exponent, EC point, signature) goes
// through here.
func Hex(bs []byte) string {
	return strings.ToUpper(hex.EncodeToString(bs))
}

// ColonHex renders bytes as colon-separated upper-case pairs, eg 0A:1B:2C, the
// way openssl and friends show serials and key identifiers.
func ColonHex(bs []byte) string {
	if len(bs) == 0 {
		return ""
	}
	h := Hex(bs)
	var sb strings.Builder
	sb.Grow(len(h) + len(bs) - 1)
	for i := 0; i < len(h); i += 2 {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(h[i : i+2])
	}
	return sb.String()
}
