package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testSecret = []byte("test-secret-key-for-testing")

func newToken(secret []byte, userID, email string, ttl time.Duration) (string, time.Time, error) {
	claims := NewAccessClaims(userID, email, uuid.NewString(), ttl)
	signed, err := SignAccessToken(secret, claims)
	return signed, claims.ExpiresAt.Time, err
}

func TestSignAccessToken(t *testing.T) {
	token, expiresAt, err := newToken(testSecret, "4a1c6f2e-0000-4000-8000-000000000001", "ana@example.com", time.Hour)
	if err != nil {
		t.Fatalf("SignAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("SignAccessToken() returned empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Error("token should not be expired immediately")
	}
}

func TestSignAccessToken_Rejects(t *testing.T) {
	if _, _, err := newToken(nil, "user", "", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, _, err := newToken(testSecret, "", "", time.Hour); err == nil {
		t.Error("expected error for empty user id")
	}
}

func TestSignAccessToken_UniquePerCall(t *testing.T) {
	token1, _, _ := newToken(testSecret, "user-1", "a@x.com", time.Hour)
	token2, _, _ := newToken(testSecret, "user-1", "a@x.com", time.Hour)

	if token1 == token2 {
		t.Error("two sessions for the same user should produce different tokens")
	}
}

func TestParseAccessToken(t *testing.T) {
	token, _, _ := newToken(testSecret, "user-42", "ana@example.com", time.Hour)

	claims, err := ParseAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.UserID() != "user-42" {
		t.Errorf("UserID = %q, expected %q", claims.UserID(), "user-42")
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("Email = %q, expected %q", claims.Email, "ana@example.com")
	}
	if claims.Role != RoleAuthenticated {
		t.Errorf("Role = %q, expected %q", claims.Role, RoleAuthenticated)
	}
}

func TestParseAccessToken_InvalidToken(t *testing.T) {
	invalidTokens := []string{
		"",
		"invalid",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalidTokens {
		if _, err := ParseAccessToken(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("ParseAccessToken(%q) error = %v, expected ErrTokenInvalid", token, err)
		}
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	token, _, _ := newToken([]byte("original-secret"), "user", "", time.Hour)

	if _, err := ParseAccessToken(token, []byte("different-secret")); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	token, _, _ := newToken(testSecret, "user-7", "", -time.Minute)

	tests := []struct {
		name   string
		secret []byte
	}{
		{"verified", testSecret},
		{"unverified", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseAccessToken(token, tt.secret)
			if !errors.Is(err, ErrTokenExpired) {
				t.Fatalf("expected ErrTokenExpired, got %v", err)
			}
			if claims == nil || claims.UserID() != "user-7" {
				t.Errorf("expired token should still expose its claims, got %+v", claims)
			}
		})
	}
}

func TestParseAccessToken_Unverified(t *testing.T) {
	token, _, _ := newToken([]byte("provider-side-secret"), "user-9", "", time.Hour)

	claims, err := ParseAccessToken(token, nil)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.UserID() != "user-9" {
		t.Errorf("UserID = %q, expected %q", claims.UserID(), "user-9")
	}
}

func TestSignAccessToken_Expiration(t *testing.T) {
	_, expiresAt, _ := newToken(testSecret, "user", "", time.Hour)

	diff := expiresAt.Sub(time.Now().Add(time.Hour))
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiration time is off by more than 1 minute: %v", diff)
	}
}
