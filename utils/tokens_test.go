package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func TestManagerRoundTrip(t *testing.T) {
	m, err := NewManager("secret")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	tok, err := m.NewOperatorToken("ops", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sub, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != "ops" {
		t.Fatalf("expected subject ops, got %q", sub)
	}
}

func TestManagerRejects(t *testing.T) {
	m, _ := NewManager("secret")
	other, _ := NewManager("other")

	expired, _ := m.NewOperatorToken("ops", -time.Minute)
	if _, err := m.Parse(expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	foreign, _ := other.NewOperatorToken("ops", time.Hour)
	if _, err := m.Parse(foreign); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}

	noAud, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   "user",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if _, err := m.Parse(noAud); err == nil {
		t.Fatal("expected token without operator audience to be rejected")
	}

	if _, err := NewManager(""); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}
