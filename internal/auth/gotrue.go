package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/huangang/projectdesk/internal/config"
	"github.com/huangang/projectdesk/internal/utils"
)

const goTrueTimeout = 10 * time.Second

// GoTrueClient talks to a hosted GoTrue (Supabase Auth) instance over REST.
type GoTrueClient struct {
	baseURL   string
	apiKey    string
	jwtSecret []byte
	client    *http.Client
}

// NewGoTrueClient builds a client for cfg.URL. When cfg.JWTSecret is empty,
// access tokens are confirmed with the provider on every lookup instead of
// being verified locally.
func NewGoTrueClient(cfg config.AuthConfig, httpClient *http.Client) *GoTrueClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: goTrueTimeout}
	}
	base := strings.TrimRight(cfg.URL, "/")
	if !strings.HasSuffix(base, "/auth/v1") {
		base += "/auth/v1"
	}
	c := &GoTrueClient{
		baseURL: base,
		apiKey:  cfg.AnonKey,
		client:  httpClient,
	}
	if cfg.JWTSecret != "" {
		c.jwtSecret = []byte(cfg.JWTSecret)
	}
	return c
}

type goTrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         goTrueUser `json:"user"`
}

func (r *tokenResponse) session() *Session {
	expiresAt := time.Unix(r.ExpiresAt, 0)
	if r.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         User{ID: r.User.ID, Email: r.User.Email},
	}
}

// signUpResponse is either a full token response or, with email
// confirmation enabled, the bare user object.
type signUpResponse struct {
	tokenResponse
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentials{email, password}, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*User, *Session, error) {
	var resp signUpResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", credentials{email, password}, &resp); err != nil {
		return nil, nil, err
	}

	if resp.AccessToken != "" {
		s := resp.session()
		return &s.User, s, nil
	}
	return &User{ID: resp.ID, Email: resp.Email}, nil, nil
}

func (c *GoTrueClient) GetSession(ctx context.Context, tokens Tokens) (*Session, error) {
	if tokens.AccessToken == "" {
		if tokens.RefreshToken == "" {
			return nil, nil
		}
		return c.refresh(ctx, tokens.RefreshToken)
	}

	claims, err := utils.ParseAccessToken(tokens.AccessToken, c.jwtSecret)
	if errors.Is(err, utils.ErrTokenExpired) {
		if tokens.RefreshToken == "" {
			return nil, err
		}
		return c.refresh(ctx, tokens.RefreshToken)
	}
	if err != nil {
		return nil, err
	}

	user := User{ID: claims.UserID(), Email: claims.Email}
	if len(c.jwtSecret) == 0 {
		var u goTrueUser
		if err := c.do(ctx, http.MethodGet, "/user", tokens.AccessToken, nil, &u); err != nil {
			return nil, err
		}
		user = User{ID: u.ID, Email: u.Email}
	}

	return &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    claims.ExpiresAt.Time,
		User:         user,
	}, nil
}

func (c *GoTrueClient) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var resp tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)

	// An already revoked or expired session counts as signed out.
	var authErr *Error
	if errors.As(err, &authErr) && (authErr.Status == http.StatusUnauthorized || authErr.Status == http.StatusNotFound) {
		return nil
	}
	return err
}

func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read auth provider response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode auth provider response: %w", err)
	}
	return nil
}

func decodeError(status int, payload []byte) *Error {
	var er errorResponse
	_ = json.Unmarshal(payload, &er)

	msg := firstNonEmpty(er.Msg, er.ErrorDescription, er.Message, er.Error)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Code: firstNonEmpty(er.ErrorCode, er.Error), Message: msg}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
