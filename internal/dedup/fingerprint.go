package dedup

import (
	"strconv"
	"unicode/utf16"
)

// Fingerprint identifies a raw log entry for deduplication. It is a cheap 32-bit
// string hash; collisions are possible and accepted.
type Fingerprint int32

// String returns the decimal form used in cache keys and logs.
func (f Fingerprint) String() string {
	return strconv.FormatInt(int64(f), 10)
}

// Hash computes hash = hash*31 + c over the UTF-16 code units of s with 32-bit signed
// overflow. Hash("") is 0.
func Hash(s string) Fingerprint {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return Fingerprint(h)
}
