// Package identity derives the respondent fingerprint: the salted one-way
// hash of a normalized email that serves as the identity lookup key without
// putting the email itself in an index.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hasher computes respondent fingerprints. The salt is application-wide and
// fixed for the lifetime of a deployment; changing it severs every stored
// identity from future submissions.
type Hasher struct {
	salt []byte
}

// NewHasher builds a Hasher with the deployment salt.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: []byte(salt)}
}

// Fingerprint returns the hex-encoded sha256 of the normalized email plus
// salt. Pure function: any input, including the empty string, hashes; email
// shape is validated upstream.
func (h *Hasher) Fingerprint(email string) string {
	sum := sha256.New()
	sum.Write([]byte(Normalize(email)))
	sum.Write(h.salt)
	return hex.EncodeToString(sum.Sum(nil))
}

// Normalize folds an email to the canonical form used for identity: trimmed
// and lower-cased, so case and whitespace variants collapse to one fingerprint.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
