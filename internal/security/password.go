package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultHashIterations = 1000
	DefaultSaltLength     = 16
	hashKeyLen            = 64
)

// PasswordHasher derives PBKDF2-SHA512 digests. The hex salt string is fed
// to the KDF as-is so digests stay compatible with migrated records.
type PasswordHasher struct {
	Iterations int
}

func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations <= 0 {
		iterations = DefaultHashIterations
	}
	return &PasswordHasher{Iterations: iterations}
}

var defaultHasher = NewPasswordHasher(DefaultHashIterations)

// GenerateSalt returns length random bytes, hex encoded.
func GenerateSalt(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid salt length %d", length)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func HashPassword(password, salt string) string {
	return defaultHasher.Hash(password, salt)
}

func VerifyPassword(password, storedHash, salt string) bool {
	return defaultHasher.Verify(password, storedHash, salt)
}

func (h *PasswordHasher) Hash(password, salt string) string {
	return hex.EncodeToString(h.derive(password, salt))
}

// Verify fails closed on empty or malformed inputs.
func (h *PasswordHasher) Verify(password, storedHash, salt string) bool {
	if storedHash == "" || salt == "" {
		return false
	}
	expected, err := hex.DecodeString(storedHash)
	if err != nil || len(expected) != hashKeyLen {
		return false
	}
	return subtle.ConstantTimeCompare(h.derive(password, salt), expected) == 1
}

// NewCredential draws a fresh salt and returns it with the matching digest.
func (h *PasswordHasher) NewCredential(password string) (hash, salt string, err error) {
	salt, err = GenerateSalt(DefaultSaltLength)
	if err != nil {
		return "", "", err
	}
	return h.Hash(password, salt), salt, nil
}

func (h *PasswordHasher) derive(password, salt string) []byte {
	iterations := h.Iterations
	if iterations <= 0 {
		iterations = DefaultHashIterations
	}
	return pbkdf2.Key([]byte(password), []byte(salt), iterations, hashKeyLen, sha512.New)
}
