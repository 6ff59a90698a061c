package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHex(t *testing.T) {
	require.Equal(t, "", Hex(nil))
	require.Equal(t, "00010AFF", Hex([]byte{0x00, 0x01, 0x0a, 0xff}))
}

func TestColonHex(t *testing.T) {
	require.Equal(t, "", ColonHex(nil))
	require.Equal(t, "AB", ColonHex([]byte{0xab}))
	require.Equal(t, "12:34:AB:CD", ColonHex([]byte{0x12, 0x34, 0xab, 0xcd}))
}

func TestServerNameConformant(t *testing.T) {
	require.True(t, ServerNameConformant("example.com"))
	require.False(t, ServerNameConformant(""))
	require.False(t, ServerNameConformant("192.0.2.1"))
	require.False(t, ServerNameConformant("2001:db8::1"))
	require.False(t, ServerNameConformant("example.com:443"))
}
