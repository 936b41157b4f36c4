package services

import (
	"context"
	"strings"

	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/pkg/logger"
)

const (
	msgSignUpFailed   = "Error al registrar usuario: "
	msgMissingUserID  = "No se pudo obtener el ID del usuario."
	msgProfileFailed  = "Error al guardar datos del perfil: "
	msgInvalidRole    = "Seleccioná un rol válido."
	msgMissingName    = "El nombre de usuario es obligatorio."
	msgMissingCredent = "Email y contraseña son obligatorios."
)

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Username string `json:"username" form:"username" binding:"required"`
	Role     string `json:"role" form:"role" binding:"required"`
}

// RegisterError names the registration step that failed. Message is shown to
// the user as-is.
type RegisterError struct {
	Step    string
	Message string
	Err     error
}

func (e *RegisterError) Error() string { return e.Message }
func (e *RegisterError) Unwrap() error { return e.Err }

const (
	StepValidate = "validate"
	StepSignUp   = "sign_up"
	StepUserID   = "user_id"
	StepProfile  = "profile"
)

// AccountService backs the login and registration forms.
type AccountService struct {
	sessions *SessionService
	profiles *ProfileService
}

func NewAccountService(sessions *SessionService, profiles *ProfileService) *AccountService {
	return &AccountService{sessions: sessions, profiles: profiles}
}

// Login signs in with email and password. Provider errors are returned
// unchanged so their message can be shown verbatim.
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (*auth.Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, &auth.Error{Status: 400, Code: "validation_failed", Message: msgMissingCredent}
	}
	return s.sessions.SignInWithPassword(ctx, strings.TrimSpace(req.Email), req.Password)
}

// Register signs up and then stores the profile {id, username, role}. The
// returned session is nil when the provider asks for email confirmation.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*auth.Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, &RegisterError{Step: StepValidate, Message: msgMissingName}
	}
	if !models.IsValidRole(req.Role) {
		return nil, &RegisterError{Step: StepValidate, Message: msgInvalidRole}
	}

	user, session, err := s.sessions.SignUp(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, &RegisterError{Step: StepSignUp, Message: msgSignUpFailed + err.Error(), Err: err}
	}
	if user == nil || user.ID == "" {
		return nil, &RegisterError{Step: StepUserID, Message: msgMissingUserID}
	}

	profile := &models.Profile{ID: user.ID, Username: username, Role: req.Role}
	if err := s.profiles.Create(ctx, profile); err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("profile insert failed after sign up")
		return nil, &RegisterError{Step: StepProfile, Message: msgProfileFailed + err.Error(), Err: err}
	}

	logger.Info().Str("user_id", user.ID).Str("role", req.Role).Msg("user registered")
	return session, nil
}
