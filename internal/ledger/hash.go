// internal/ledger/hash.go
package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// txHash derives a 32-byte Keccak-256 transaction hash in 0x-hex form.
func txHash(method string, id uint64, sender string, nonce uint64, at time.Time) string {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "%s|%d|%s|%d|%d", method, id, strings.ToLower(sender), nonce, at.UnixNano())
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// unixOrZero maps an unset time to the ledger's zero sentinel.
func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func sameIdentity(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// recordTuple lays out a record in the 14-field ledger schema.
func recordTuple(id uint64, f [SubmissionArity]string, applicant string, submitted, issued, expires int64, status string) RawRecord {
	return RawRecord{
		id,
		f[0], f[1], f[2], f[3], f[4],
		// applyForLicense takes subType before businessType; the record
		// stores them as type and sector in that order.
		f[5], f[6],
		f[7],
		applicant,
		submitted, issued, expires,
		status,
	}
}

func zeroRecord() RawRecord {
	var empty [SubmissionArity]string
	return recordTuple(0, empty, "", 0, 0, 0, "")
}
