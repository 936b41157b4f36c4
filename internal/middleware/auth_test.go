package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSessions accepts exactly one access token. When refreshTo is set, the
// refresh token yields a rotated session.
type fakeSessions struct {
	valid     string
	refreshTo *auth.Session
	got       auth.Tokens
}

func (f *fakeSessions) GetCurrentSession(ctx context.Context, tokens auth.Tokens) *auth.Session {
	f.got = tokens
	if tokens.AccessToken == f.valid && f.valid != "" {
		return &auth.Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, User: auth.User{ID: "u-1"}}
	}
	if f.refreshTo != nil && tokens.RefreshToken != "" {
		return f.refreshTo
	}
	return nil
}

type fakeProfiles map[string]*models.Profile

func (f fakeProfiles) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if p, ok := f[userID]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestTokens(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		cookies map[string]string
		want    auth.Tokens
	}{
		{"none", "", nil, auth.Tokens{}},
		{"bearer", "Bearer abc", nil, auth.Tokens{AccessToken: "abc"}},
		{"bearer lowercase", "bearer abc", nil, auth.Tokens{AccessToken: "abc"}},
		{"basic ignored", "Basic abc", map[string]string{AccessTokenCookie: "cookie"}, auth.Tokens{AccessToken: "cookie"}},
		{"cookies", "", map[string]string{AccessTokenCookie: "a", RefreshTokenCookie: "r"}, auth.Tokens{AccessToken: "a", RefreshToken: "r"}},
		{"bearer wins", "Bearer h", map[string]string{AccessTokenCookie: "a", RefreshTokenCookie: "r"}, auth.Tokens{AccessToken: "h", RefreshToken: "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			for name, value := range tt.cookies {
				c.Request.AddCookie(&http.Cookie{Name: name, Value: value})
			}
			if got := RequestTokens(c); got != tt.want {
				t.Errorf("RequestTokens() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	sessions := &fakeSessions{valid: "good"}
	router := gin.New()
	router.Use(AuthRequired(sessions, CookieOptions{}))
	router.GET("/api/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	if w := serve(router, req); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = serve(router, req)
	if w.Code != http.StatusOK || w.Body.String() != "u-1" {
		t.Errorf("good token: %d %q", w.Code, w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("unchanged tokens should not rewrite cookies")
	}
}

func TestLoginRequired_RedirectsToLogin(t *testing.T) {
	router := gin.New()
	router.Use(LoginRequired(&fakeSessions{}, CookieOptions{}))
	router.POST("/dashboard/projects", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, httptest.NewRequest(http.MethodPost, "/dashboard/projects", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("got %d to %q", w.Code, w.Header().Get("Location"))
	}
}

func TestLoginRequired_RotatedTokensRewriteCookies(t *testing.T) {
	rotated := &auth.Session{AccessToken: "new-access", RefreshToken: "new-refresh", User: auth.User{ID: "u-1"}}
	router := gin.New()
	router.Use(LoginRequired(&fakeSessions{refreshTo: rotated}, CookieOptions{}))
	router.GET("/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "expired"})
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "old-refresh"})
	w := serve(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cookies := map[string]string{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[AccessTokenCookie] != "new-access" || cookies[RefreshTokenCookie] != "new-refresh" {
		t.Errorf("cookies = %v", cookies)
	}
}

func TestLoginRequired_RefreshOnlyRotationRewritesCookies(t *testing.T) {
	rotated := &auth.Session{AccessToken: "same-access", RefreshToken: "new-refresh", User: auth.User{ID: "u-1"}}
	router := gin.New()
	router.Use(LoginRequired(&fakeSessions{refreshTo: rotated}, CookieOptions{}))
	router.GET("/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "same-access"})
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "old-refresh"})
	w := serve(router, req)

	cookies := map[string]string{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[RefreshTokenCookie] != "new-refresh" {
		t.Errorf("refresh cookie not rewritten: %v", cookies)
	}
}

func TestClearSessionCookies(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ClearSessionCookies(c, CookieOptions{Secure: true})

	header := strings.Join(w.Header().Values("Set-Cookie"), "\n")
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		if !strings.Contains(header, name+"=;") {
			t.Errorf("%s not cleared: %s", name, header)
		}
	}
	if !strings.Contains(header, "Secure") || !strings.Contains(header, "HttpOnly") {
		t.Errorf("missing cookie attributes: %s", header)
	}
}

func TestProfileLoaderAndManagerRequired(t *testing.T) {
	profiles := fakeProfiles{
		"pm":      {ID: "pm", Username: "pablo", Role: models.RoleProjectManager},
		"cliente": {ID: "cliente", Username: "carla", Role: models.RoleClient},
	}

	tests := []struct {
		userID string
		want   int
	}{
		{"pm", http.StatusOK},
		{"cliente", http.StatusForbidden},
		{"ghost", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				c.Set(ContextUserID, tt.userID)
				c.Next()
			})
			router.Use(ProfileLoader(profiles), ManagerRequired())
			router.POST("/api/projects", func(c *gin.Context) {
				c.String(http.StatusOK, GetUsername(c))
			})

			w := serve(router, httptest.NewRequest(http.MethodPost, "/api/projects", nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestContextGetters(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUserID(c) != "" || GetUsername(c) != "" || GetRole(c) != "" || GetSession(c) != nil {
		t.Error("empty context should yield zero values")
	}

	session := &auth.Session{User: auth.User{ID: "u-1"}}
	c.Set(ContextSession, session)
	c.Set(ContextRole, models.RoleDesigner)
	if GetSession(c) != session || GetRole(c) != models.RoleDesigner {
		t.Error("getters should return stored values")
	}
}
