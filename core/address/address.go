// Package address validates the 20-byte hex account addresses accepted by the SDK.
package address

import (
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Valid reports whether s is "0x" followed by exactly 40 hexadecimal characters.
// Mixed-case input is accepted without checksum verification.
func Valid(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	return ethcommon.IsHexAddress(s)
}

// Checksum returns the EIP-55 representation of a valid address. Invalid input
// is returned unchanged.
func Checksum(s string) string {
	if !Valid(s) {
		return s
	}
	return ethcommon.HexToAddress(s).Hex()
}

// Equal compares two addresses case-insensitively.
func Equal(a, b string) bool {
	if !Valid(a) || !Valid(b) {
		return false
	}
	return ethcommon.HexToAddress(a) == ethcommon.HexToAddress(b)
}
