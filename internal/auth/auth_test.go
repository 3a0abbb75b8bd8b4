package auth

import (
	"testing"
	"time"
)

func testManager() *Manager {
	return &Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Issuer:     "bookwise-backend",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role admin, got %q", claims.Role)
	}
	if claims.Issuer != "bookwise-backend" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}

	other := testManager()
	other.Secret = []byte("different-secret")
	if _, err := other.Parse(token); err == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other := testManager()
	other.Issuer = "some-other-service"
	token, err := other.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}
	if _, err := testManager().Parse(token); err == nil {
		t.Fatalf("expected parse failure for wrong issuer")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := testManager()
	m.AccessTTL = -time.Minute
	token, err := m.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatalf("expected parse failure for expired token")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := testManager()
	if _, err := m.Parse("not-a-token"); err == nil {
		t.Fatalf("expected parse failure for malformed token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if err := ComparePassword(hash, "hunter2hunter2"); err != nil {
		t.Fatalf("ComparePassword rejected correct password: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatalf("ComparePassword accepted wrong password")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
