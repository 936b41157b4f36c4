// Package auth is the boundary to the external identity provider.
package auth

import (
	"context"
	"errors"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is proof of an authenticated identity issued by the provider.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

func (s *Session) Tokens() Tokens {
	return Tokens{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

// RotatedFrom reports whether the provider replaced either of the presented
// tokens. A refresh can yield an identical access token when it lands in the
// same second as the original, while the refresh token always rotates.
func (s *Session) RotatedFrom(presented Tokens) bool {
	return s.Tokens() != presented
}

// Tokens are the credentials a client presents on each request.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Event names follow the provider's auth state change events.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Provider issues, validates and revokes sessions.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignUp creates a user. The session is nil when the provider requires
	// email confirmation before the first sign-in.
	SignUp(ctx context.Context, email, password string) (*User, *Session, error)
	// GetSession validates tokens, refreshing an expired access token when a
	// refresh token is available. Empty tokens yield a nil session and no error.
	GetSession(ctx context.Context, tokens Tokens) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Error is a failure reported by the provider. Message is user-facing.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var ErrSessionNotFound = errors.New("session not found")
