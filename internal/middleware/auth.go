package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
	ContextSession  = "session"
)

const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"

	sessionCookieMaxAge = 7 * 24 * 60 * 60
)

type SessionReader interface {
	GetCurrentSession(ctx context.Context, tokens auth.Tokens) *auth.Session
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// CookieOptions controls the attributes of the session cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

// RequestTokens reads the session tokens of a request. A Bearer header wins
// over cookies.
func RequestTokens(c *gin.Context) auth.Tokens {
	var tokens auth.Tokens
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokens.AccessToken = strings.TrimSpace(parts[1])
		}
	}
	if tokens.AccessToken == "" {
		tokens.AccessToken, _ = c.Cookie(AccessTokenCookie)
	}
	tokens.RefreshToken, _ = c.Cookie(RefreshTokenCookie)
	return tokens
}

func SetSessionCookies(c *gin.Context, session *auth.Session, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, session.AccessToken, sessionCookieMaxAge, "/", opts.Domain, opts.Secure, true)
	c.SetCookie(RefreshTokenCookie, session.RefreshToken, sessionCookieMaxAge, "/", opts.Domain, opts.Secure, true)
}

func ClearSessionCookies(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", opts.Domain, opts.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", opts.Domain, opts.Secure, true)
}

// resolveSession stores the current session in the context and rewrites the
// cookies when the provider rotated the tokens.
func resolveSession(c *gin.Context, sessions SessionReader, opts CookieOptions) bool {
	tokens := RequestTokens(c)
	session := sessions.GetCurrentSession(c.Request.Context(), tokens)
	if session == nil {
		return false
	}
	if session.RotatedFrom(tokens) {
		SetSessionCookies(c, session, opts)
	}
	c.Set(ContextSession, session)
	c.Set(ContextUserID, session.User.ID)
	return true
}

// AuthRequired rejects API requests without a valid session.
func AuthRequired(sessions SessionReader, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveSession(c, sessions, opts) {
			response.Abort(c, response.NewUnauthorized("authentication required"))
			return
		}
		c.Next()
	}
}

// LoginRequired sends page requests without a valid session to /login.
func LoginRequired(sessions SessionReader, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveSession(c, sessions, opts) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ProfileLoader puts the caller's role and username in the context. A missing
// profile leaves both unset.
func ProfileLoader(profiles ProfileReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := GetUserID(c); userID != "" {
			if p, err := profiles.GetProfile(c.Request.Context(), userID); err == nil {
				c.Set(ContextRole, p.Role)
				c.Set(ContextUsername, p.Username)
			}
		}
		c.Next()
	}
}

// ManagerRequired only lets through roles allowed to change projects.
func ManagerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !models.CanManageProjects(GetRole(c)) {
			response.Abort(c, response.NewForbidden("project management access required"))
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

func GetSession(c *gin.Context) *auth.Session {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(*auth.Session); ok {
			return s
		}
	}
	return nil
}
