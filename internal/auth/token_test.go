package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", false)

	token, err := svc.CreateToken("client-123", "marie@example.fr")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.ClientID != "client-123" {
		t.Errorf("expected clientId client-123, got %s", claims.ClientID)
	}
	if claims.Email != "marie@example.fr" {
		t.Errorf("expected email marie@example.fr, got %s", claims.Email)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	svc := NewTokenService("secret-a", false)
	other := NewTokenService("secret-b", false)

	token, err := svc.CreateToken("client-123", "marie@example.fr")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	if _, err := other.VerifyToken(token); err == nil {
		t.Error("expected verification to fail with a different secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	svc := NewTokenService("test-secret", false)

	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.CreateToken("client-123", "marie@example.fr")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	// 8 days later the 7-day token must be rejected.
	svc.now = func() time.Time { return issued.Add(8 * 24 * time.Hour) }
	if _, err := svc.VerifyToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestFromRequest(t *testing.T) {
	svc := NewTokenService("test-secret", false)

	token, err := svc.CreateToken("client-123", "marie@example.fr")
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/client/projects", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})

	claims := svc.FromRequest(req)
	if claims == nil {
		t.Fatal("expected claims from valid cookie")
	}
	if claims.ClientID != "client-123" {
		t.Errorf("expected clientId client-123, got %s", claims.ClientID)
	}

	// No cookie
	if got := svc.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); got != nil {
		t.Error("expected nil claims without a cookie")
	}

	// Garbage cookie
	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-token"})
	if got := svc.FromRequest(bad); got != nil {
		t.Error("expected nil claims for a malformed token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("expected correct password to verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestGenerateTemporaryPassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		pw, err := GenerateTemporaryPassword()
		if err != nil {
			t.Fatalf("GenerateTemporaryPassword: %v", err)
		}
		if len(pw) != TempPasswordLength {
			t.Errorf("expected length %d, got %d", TempPasswordLength, len(pw))
		}
		if seen[pw] {
			t.Error("generated a duplicate temporary password")
		}
		seen[pw] = true
	}
}
