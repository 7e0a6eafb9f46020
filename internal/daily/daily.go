// internal/daily/daily.go
//
// Daily puzzle seeds. Every client asking on the same UTC date gets the same
// seed, so the daily puzzle is identical for everyone.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns HMAC(salt, YYYY-MM-DD) reduced into [0, max].
func Seed(date time.Time, salt string, max int64) int64 {
	if max <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes are plenty for the modulus
	n := binary.BigEndian.Uint64(sum[:8])
	return int64(n % (uint64(max) + 1))
}
