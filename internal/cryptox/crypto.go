// Package cryptox implements the secret check behind the lock: a one-way
// digest of the candidate secret compared with the digest kept in the config
// store.
//
// The stored scheme is unsalted SHA-256 over the UTF-8 bytes of the secret,
// hex encoded by the store. Keep it that way: existing stores were written
// with exactly this digest.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestSize is the length in bytes of a secret digest.
const DigestSize = sha256.Size

// HashSecret returns the SHA-256 digest of secret. Identical input always
// yields the identical digest.
func HashSecret(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// HashSecretHex is HashSecret in the hex form used by the config stores.
func HashSecretHex(secret string) string {
	return hex.EncodeToString(HashSecret(secret))
}

// VerifySecret reports whether HashSecret(secret) equals stored byte for byte.
// A stored digest of the wrong length never matches.
//
// The comparison runs in constant time for equal-length inputs.
func VerifySecret(secret string, stored []byte) bool {
	candidate := HashSecret(secret)
	return subtle.ConstantTimeCompare(candidate, stored) == 1
}
