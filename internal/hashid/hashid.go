// Package hashid derives content-addressed identifiers. The same parts
// in the same order always produce the same ID, so re-submitting a
// logical entity collides with the existing row instead of duplicating it.
package hashid

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Derive concatenates parts in call order with no delimiter and returns
// the lowercase hex SHA-1 digest. Callers canonicalize inputs that must
// collide consistently (see CanonicalEmail).
func Derive(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalEmail normalizes an email address before it is hashed.
// Two addresses differing only in case or surrounding whitespace must
// resolve to the same account.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
