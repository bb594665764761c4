package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cure-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cure-pass" {
		t.Fatal("hash equals plaintext")
	}

	if !VerifyPassword("s3cure-pass", hash) {
		t.Error("VerifyPassword() rejected the correct password")
	}
	if VerifyPassword("wrong-pass", hash) {
		t.Error("VerifyPassword() accepted a wrong password")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", MaxPasswordLength+1)
	if _, err := HashPassword(long); err == nil {
		t.Errorf("HashPassword() should reject passwords over %d bytes", MaxPasswordLength)
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword(""); err == nil {
		t.Error("HashPassword(\"\") should fail")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	t.Parallel()

	if VerifyPassword("anything", "not-a-bcrypt-hash") {
		t.Error("VerifyPassword() accepted an invalid hash")
	}
}
