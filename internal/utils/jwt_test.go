package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	tok, err := NewAccessToken(secret, 42, "STUDENT", 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(tok.Exp) <= 0 {
		t.Fatalf("token already expired: %v", tok.Exp)
	}

	parsed, err := jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
		t.Fatalf("sub = %v, want 42", claims["sub"])
	}
	if role, _ := claims["role"].(string); role != "STUDENT" {
		t.Fatalf("role = %v, want STUDENT", claims["role"])
	}
}

func TestAccessTokenWrongSecretRejected(t *testing.T) {
	tok, err := NewAccessToken("secret-a", 1, "ADMIN", 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parsed, err := jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("secret-b"), nil
	})
	if err == nil && parsed.Valid {
		t.Fatalf("token verified with the wrong secret")
	}
}

func TestRefreshTokensAreUniqueAndHashed(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("issue a: %v", err)
	}
	b, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("issue b: %v", err)
	}
	if a.Raw == b.Raw {
		t.Fatalf("two refresh tokens collided")
	}
	if len(a.Raw) != 96 { // 48 random bytes hex-encoded
		t.Fatalf("raw length = %d, want 96", len(a.Raw))
	}
	if HashRefreshRaw(a.Raw) == a.Raw {
		t.Fatalf("hash equals raw value")
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Fatalf("hash is not deterministic")
	}
}
