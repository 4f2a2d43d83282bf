package security

import (
	"strings"
	"testing"
)

func TestGenerateSaltLengthAndUniqueness(t *testing.T) {
	a, err := GenerateSalt(16)
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	b, err := GenerateSalt(16)
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("expected 32 hex chars, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Fatal("expected distinct salts")
	}
	if _, err := GenerateSalt(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	salt, err := GenerateSalt(DefaultSaltLength)
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	hash := HashPassword("Stronger#Pass123", salt)
	if len(hash) != 128 {
		t.Fatalf("expected 128 hex chars, got %d", len(hash))
	}
	if hash != HashPassword("Stronger#Pass123", salt) {
		t.Fatal("expected deterministic hash")
	}
	if !VerifyPassword("Stronger#Pass123", hash, salt) {
		t.Fatal("expected password verification success")
	}
	if VerifyPassword("Stronger#Pass124", hash, salt) {
		t.Fatal("expected mismatch for one-character change")
	}
	other, _ := GenerateSalt(DefaultSaltLength)
	if VerifyPassword("Stronger#Pass123", hash, other) {
		t.Fatal("expected mismatch under a different salt")
	}
}

func TestVerifyPasswordFailsClosed(t *testing.T) {
	salt := "00112233445566778899aabbccddeeff"
	valid := HashPassword("pw", salt)
	cases := []struct {
		name string
		hash string
		salt string
	}{
		{"empty hash", "", salt},
		{"empty salt", valid, ""},
		{"malformed hex", "zz" + valid[2:], salt},
		{"truncated", valid[:64], salt},
		{"odd length", valid + "0", salt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if VerifyPassword("pw", tc.hash, tc.salt) {
				t.Fatalf("expected false for %s", tc.name)
			}
		})
	}
}

func TestPasswordHasherIterationsChangeDigest(t *testing.T) {
	salt := "abcdef0123456789"
	low := NewPasswordHasher(1000)
	high := NewPasswordHasher(2000)
	if low.Hash("pw", salt) == high.Hash("pw", salt) {
		t.Fatal("expected different digests for different iteration counts")
	}
	if high.Verify("pw", low.Hash("pw", salt), salt) {
		t.Fatal("expected verification to be bound to iteration count")
	}
	if NewPasswordHasher(0).Iterations != DefaultHashIterations {
		t.Fatal("expected default iterations for non-positive input")
	}
}

func TestPasswordHasherNewCredential(t *testing.T) {
	h := NewPasswordHasher(DefaultHashIterations)
	hash, salt, err := h.NewCredential("Campus#2024")
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	if strings.TrimSpace(salt) == "" || !h.Verify("Campus#2024", hash, salt) {
		t.Fatal("expected credential to verify")
	}
}
