// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address. Mixed
// case input must carry a valid EIP-55 checksum.
func IsAddress(s string) bool {
	s = strings.TrimSpace(s)
	if !addressPattern.MatchString(s) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return ChecksumAddress(s) == s
}

// ChecksumAddress renders an address in EIP-55 mixed case.
func ChecksumAddress(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

// NormalizeAddress is the comparable form of an identity: trimmed and
// lowercased.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
