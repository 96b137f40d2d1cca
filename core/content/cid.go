package content

import (
	"encoding/base32"
	"encoding/binary"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

const (
	multihashSHA256 = 0x12
	sha256Length    = 32
)

var cidBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// IsCID reports whether s is an IPFS content identifier: either a CIDv0
// ("Qm…", base58btc sha2-256 multihash) or a base32 CIDv1 ("b…").
func IsCID(s string) bool {
	switch {
	case len(s) == 46 && strings.HasPrefix(s, "Qm"):
		return isCIDv0(s)
	case len(s) > 1 && s[0] == 'b':
		return isCIDv1(s[1:])
	default:
		return false
	}
}

func isCIDv0(s string) bool {
	raw := base58.Decode(s)
	if len(raw) != 2+sha256Length {
		return false
	}
	return raw[0] == multihashSHA256 && raw[1] == sha256Length
}

func isCIDv1(body string) bool {
	if body != strings.ToLower(body) {
		return false
	}
	raw, err := cidBase32.DecodeString(strings.ToUpper(body))
	if err != nil {
		return false
	}
	version, n := binary.Uvarint(raw)
	if n <= 0 || version != 1 {
		return false
	}
	raw = raw[n:]
	if _, n = binary.Uvarint(raw); n <= 0 {
		return false
	}
	raw = raw[n:]
	if _, n = binary.Uvarint(raw); n <= 0 {
		return false
	}
	raw = raw[n:]
	length, n := binary.Uvarint(raw)
	if n <= 0 {
		return false
	}
	return uint64(len(raw[n:])) == length && length > 0
}
