package catalog

import (
	"encoding/base64"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FingerprintPrefix marks identities derived from title and date rather than
// assigned by the store.
const FingerprintPrefix = "client_"

// Fingerprint derives the stable identity of an event that has no durable id.
// The same title and date always produce the same value.  The seed is the
// unpadded base64 of the UTF-8 bytes of "title::date"; input that is not
// valid UTF-8 falls back to a djb2 hash rendered in base 36.
func Fingerprint(title, date string) string {
	seed := title + "::" + date
	if !utf8.ValidString(seed) {
		return FingerprintPrefix + djb2(seed)
	}
	enc := base64.StdEncoding.EncodeToString([]byte(seed))
	return FingerprintPrefix + strings.TrimRight(enc, "=")
}

// ClientID returns the durable id when present and the fingerprint otherwise.
func ClientID(ev Event) string {
	if ev.ID != 0 {
		return strconv.FormatUint(ev.ID, 10)
	}
	return Fingerprint(ev.Title, ev.Date)
}

// IsFingerprint reports whether id was produced by Fingerprint.
func IsFingerprint(id string) bool {
	return strings.HasPrefix(id, FingerprintPrefix) && len(id) > len(FingerprintPrefix)
}

// djb2 keeps the hash in 32-bit signed arithmetic so that results are stable
// across platforms.
func djb2(s string) string {
	var h int32 = 5381
	for i := 0; i < len(s); i++ {
		h = (h << 5) + h + int32(s[i])
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return strconv.FormatInt(n, 36)
}
