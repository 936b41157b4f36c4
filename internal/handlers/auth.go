package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/middleware"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/internal/services"
	"github.com/huangang/projectdesk/internal/views"
	"github.com/huangang/projectdesk/pkg/response"
)

type AuthHandler struct {
	accounts *services.AccountService
	sessions *services.SessionService
	profiles *services.ProfileService
	cookies  middleware.CookieOptions
}

func NewAuthHandler(accounts *services.AccountService, sessions *services.SessionService, profiles *services.ProfileService, cookies middleware.CookieOptions) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, profiles: profiles, cookies: cookies}
}

type sessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         auth.User `json:"user"`
}

func newSessionResponse(s *auth.Session) *sessionResponse {
	if s == nil {
		return nil
	}
	return &sessionResponse{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, ExpiresAt: s.ExpiresAt, User: s.User}
}

// LoginPage renders the login form.
// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, views.LoginPage, views.NewAuthData())
}

// Login signs in from the login form. The provider's message is shown as-is.
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	_ = c.ShouldBind(&req)

	session, err := h.accounts.Login(c.Request.Context(), &req)
	if err != nil {
		data := views.NewAuthData()
		data.Email = req.Email
		data.Error = err.Error()
		c.HTML(http.StatusUnauthorized, views.LoginPage, data)
		return
	}

	middleware.SetSessionCookies(c, session, h.cookies)
	c.Redirect(http.StatusSeeOther, services.RouteDashboard)
}

// RegisterPage renders the registration form.
// GET /register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, views.RegisterPage, views.NewAuthData())
}

// Register signs up and stores the profile.
// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	_ = c.ShouldBind(&req)

	session, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		data := views.NewAuthData()
		data.Email = req.Email
		data.Username = req.Username
		data.Role = req.Role
		data.Error = err.Error()
		c.HTML(registerStatus(err), views.RegisterPage, data)
		return
	}

	if session != nil {
		middleware.SetSessionCookies(c, session, h.cookies)
	}
	c.Redirect(http.StatusSeeOther, services.RouteDashboard)
}

// Logout ends the session and clears the cookies whatever the provider says.
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.signOut(c)
	c.Redirect(http.StatusSeeOther, services.RouteLogin)
}

func (h *AuthHandler) signOut(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		session = h.sessions.GetCurrentSession(c.Request.Context(), middleware.RequestTokens(c))
	}
	_ = h.sessions.SignOut(c.Request.Context(), session)
	middleware.ClearSessionCookies(c, h.cookies)
}

// APILogin
// POST /api/auth/login
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, authError(err))
		return
	}

	middleware.SetSessionCookies(c, session, h.cookies)
	response.Success(c, newSessionResponse(session))
}

// APIRegister
// POST /api/auth/register
func (h *AuthHandler) APIRegister(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, response.NewAppError(registerStatus(err), err.Error()))
		return
	}

	if session != nil {
		middleware.SetSessionCookies(c, session, h.cookies)
	}
	response.Created(c, newSessionResponse(session))
}

// APILogout
// POST /api/auth/logout
func (h *AuthHandler) APILogout(c *gin.Context) {
	h.signOut(c)
	response.Success(c, gin.H{"message": "sesión cerrada"})
}

// Me returns the signed-in user and their profile. Profile is null when the
// lookup fails.
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.GetSession(c)
	var profile *models.Profile
	if p, err := h.profiles.GetProfile(c.Request.Context(), session.User.ID); err == nil {
		profile = p
	}
	response.Success(c, gin.H{
		"user":    session.User,
		"profile": profile,
	})
}

func authError(err error) error {
	var providerErr *auth.Error
	if errors.As(err, &providerErr) {
		status := providerErr.Status
		if status == 0 || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return response.NewAppError(status, providerErr.Message)
	}
	return err
}

func registerStatus(err error) int {
	var regErr *services.RegisterError
	if errors.As(err, &regErr) && regErr.Step == services.StepProfile {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
