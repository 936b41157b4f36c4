package auth

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/projectdesk/internal/utils"
)

const minPasswordLength = 6

// MemoryProvider is an in-process Provider for local development and tests.
// It issues GoTrue-shaped HS256 access tokens with opaque refresh tokens, and
// forgets everything on restart.
type MemoryProvider struct {
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	users   map[string]*memoryUser // by normalized email
	refresh map[string]refreshGrant
	revoked map[string]struct{} // session ids
}

type memoryUser struct {
	id           string
	email        string
	passwordHash string
}

type refreshGrant struct {
	userID    string
	sessionID string
}

func NewMemoryProvider(secret string, ttl time.Duration) *MemoryProvider {
	return &MemoryProvider{
		secret:  []byte(secret),
		ttl:     ttl,
		users:   make(map[string]*memoryUser),
		refresh: make(map[string]refreshGrant),
		revoked: make(map[string]struct{}),
	}
}

func invalidCredentials() *Error {
	return &Error{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
}

func (p *MemoryProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	p.mu.Lock()
	u, ok := p.users[normalizeEmail(email)]
	p.mu.Unlock()

	if !ok || !utils.CheckPassword(password, u.passwordHash) {
		return nil, invalidCredentials()
	}
	return p.issue(u, uuid.NewString())
}

func (p *MemoryProvider) SignUp(ctx context.Context, email, password string) (*User, *Session, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return nil, nil, &Error{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < minPasswordLength {
		return nil, nil, &Error{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: "Password should be at least 6 characters."}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	key := normalizeEmail(email)
	p.mu.Lock()
	if _, exists := p.users[key]; exists {
		p.mu.Unlock()
		return nil, nil, &Error{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}
	u := &memoryUser{id: uuid.NewString(), email: key, passwordHash: hash}
	p.users[key] = u
	p.mu.Unlock()

	session, err := p.issue(u, uuid.NewString())
	if err != nil {
		return nil, nil, err
	}
	return &User{ID: u.id, Email: u.email}, session, nil
}

func (p *MemoryProvider) GetSession(ctx context.Context, tokens Tokens) (*Session, error) {
	if tokens.AccessToken == "" {
		if tokens.RefreshToken == "" {
			return nil, nil
		}
		return p.refreshSession(tokens.RefreshToken)
	}

	claims, err := utils.ParseAccessToken(tokens.AccessToken, p.secret)
	if errors.Is(err, utils.ErrTokenExpired) && tokens.RefreshToken != "" {
		return p.refreshSession(tokens.RefreshToken)
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	_, revoked := p.revoked[claims.SessionID]
	p.mu.Unlock()
	if revoked {
		return nil, ErrSessionNotFound
	}

	return &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    claims.ExpiresAt.Time,
		User:         User{ID: claims.UserID(), Email: claims.Email},
	}, nil
}

func (p *MemoryProvider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := utils.ParseAccessToken(accessToken, p.secret)
	if err != nil && !errors.Is(err, utils.ErrTokenExpired) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked[claims.SessionID] = struct{}{}
	for token, grant := range p.refresh {
		if grant.sessionID == claims.SessionID {
			delete(p.refresh, token)
		}
	}
	return nil
}

// UserCount reports how many users have signed up.
func (p *MemoryProvider) UserCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}

// refreshSession rotates a refresh token, keeping the session id.
func (p *MemoryProvider) refreshSession(refreshToken string) (*Session, error) {
	p.mu.Lock()
	grant, ok := p.refresh[refreshToken]
	if ok {
		delete(p.refresh, refreshToken)
	}
	var u *memoryUser
	for _, candidate := range p.users {
		if candidate.id == grant.userID {
			u = candidate
			break
		}
	}
	p.mu.Unlock()

	if !ok || u == nil {
		return nil, &Error{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Invalid Refresh Token: Refresh Token Not Found"}
	}
	return p.issue(u, grant.sessionID)
}

func (p *MemoryProvider) issue(u *memoryUser, sessionID string) (*Session, error) {
	claims := utils.NewAccessClaims(u.id, u.email, sessionID, p.ttl)
	access, err := utils.SignAccessToken(p.secret, claims)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.RandomToken(24)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.refresh[refresh] = refreshGrant{userID: u.id, sessionID: sessionID}
	p.mu.Unlock()

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.ExpiresAt.Time,
		User:         User{ID: u.id, Email: u.email},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
