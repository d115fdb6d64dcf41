package utils // package utils provides helper functions for hashing and token handling

import (
	"crypto/rand"   // secure random salt generation
	"crypto/sha256" // hash underlying the key derivation
	"crypto/subtle" // constant-time comparison
	"encoding/base64"
	"encoding/hex" // reset passwords are returned as hex

	"golang.org/x/crypto/pbkdf2" // password-based key derivation
)

// Password digest layout: a random 24-byte salt encoded as base64 (always 32
// characters) followed by the base64 PBKDF2 key.  The constants below are
// part of the stored format; changing any of them invalidates every digest
// already in the database.
const (
	saltBytes      = 24
	saltEncodedLen = 32
	keyBytes       = 64
	pbkdf2Iters    = 104906
)

// HashPassword derives a fresh salted digest for the given plaintext.  Two
// calls with the same input produce different digests because the salt is
// random per call.
func HashPassword(plain string) (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	salt := base64.StdEncoding.EncodeToString(raw)
	key := pbkdf2.Key([]byte(plain), []byte(salt), pbkdf2Iters, keyBytes, sha256.New)
	return salt + base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword re-derives the key with the digest's salt prefix and
// compares in constant time.  Malformed digests never verify.
func VerifyPassword(plain, digest string) bool {
	if len(digest) <= saltEncodedLen {
		return false
	}
	salt := digest[:saltEncodedLen]
	want := digest[saltEncodedLen:]
	key := pbkdf2.Key([]byte(plain), []byte(salt), pbkdf2Iters, keyBytes, sha256.New)
	got := base64.StdEncoding.EncodeToString(key)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// RandomPassword returns a short random password used by the admin password
// reset flow.  n is the number of random bytes; the result is 2n hex chars.
func RandomPassword(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
