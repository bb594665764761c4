package auth

import (
	"strings"
	"testing"
	"time"
)

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantErr   bool
	}{
		{name: "HS256", secret: "secret", algorithm: "HS256"},
		{name: "HS384", secret: "secret", algorithm: "HS384"},
		{name: "HS512", secret: "secret", algorithm: "HS512"},
		{name: "empty secret", secret: "", algorithm: "HS256", wantErr: true},
		{name: "unsupported algorithm", secret: "secret", algorithm: "RS256", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTokenService(tt.secret, tt.algorithm, time.Minute)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenService() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("test-secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	token, err := svc.Issue("priya")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !strings.Contains(token, ".") {
		t.Errorf("Issue() returned malformed token %q", token)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Sub != "priya" {
		t.Errorf("claims.Sub = %q, want priya", claims.Sub)
	}
}

func TestIssueEmptyUsername(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-secret", "HS256", time.Minute)
	if _, err := svc.Issue(""); err == nil {
		t.Error("Issue(\"\") should fail")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenService("secret-a", "HS256", time.Minute)
	verifier, _ := NewTokenService("secret-b", "HS256", time.Minute)

	token, err := issuer.Issue("priya")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Error("Verify() with wrong secret should fail")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-secret", "HS256", time.Millisecond)
	token, err := svc.Issue("priya")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// jwx truncates times to whole seconds, so wait past that granularity.
	time.Sleep(1100 * time.Millisecond)
	if _, err := svc.Verify(token); err == nil {
		t.Error("Verify() of expired token should fail")
	}
}

func TestVerifyGarbage(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-secret", "HS256", time.Minute)
	if _, err := svc.Verify("not-a-token"); err == nil {
		t.Error("Verify() of garbage should fail")
	}
}
