package services

import (
	"context"

	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/pkg/logger"
)

// SessionService is the application's only door to the auth provider.
type SessionService struct {
	provider auth.Provider
	hub      *SessionHub
}

func NewSessionService(provider auth.Provider, hub *SessionHub) *SessionService {
	return &SessionService{provider: provider, hub: hub}
}

// GetCurrentSession resolves tokens into a session. Provider failures are
// logged and reported as no session.
func (s *SessionService) GetCurrentSession(ctx context.Context, tokens auth.Tokens) *auth.Session {
	if tokens.Empty() {
		return nil
	}

	session, err := s.provider.GetSession(ctx, tokens)
	if err != nil {
		logger.Warn().Err(err).Msg("could not resolve current session")
		return nil
	}
	if session == nil {
		return nil
	}

	if session.RotatedFrom(tokens) {
		s.hub.Publish(ctx, SessionEvent{Type: auth.EventTokenRefreshed, UserID: session.User.ID, Session: session})
	}
	return session
}

// OnSessionChange calls fn on every auth state change of userID until the
// returned unsubscribe func is called.
func (s *SessionService) OnSessionChange(userID string, fn func(SessionEvent)) func() {
	return s.hub.Subscribe(userID, fn)
}

func (s *SessionService) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(ctx, SessionEvent{Type: auth.EventSignedIn, UserID: session.User.ID, Session: session})
	return session, nil
}

func (s *SessionService) SignUp(ctx context.Context, email, password string) (*auth.User, *auth.Session, error) {
	user, session, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if session != nil {
		s.hub.Publish(ctx, SessionEvent{Type: auth.EventSignedIn, UserID: session.User.ID, Session: session})
	}
	return user, session, nil
}

// SignOut revokes session with the provider and notifies listeners.
// Callers clear their own copies of the tokens whatever the result.
func (s *SessionService) SignOut(ctx context.Context, session *auth.Session) error {
	if session == nil {
		return nil
	}
	if err := s.provider.SignOut(ctx, session.AccessToken); err != nil {
		logger.Error().Err(err).Str("user_id", session.User.ID).Msg("sign out failed")
		return err
	}
	s.hub.Publish(ctx, SessionEvent{Type: auth.EventSignedOut, UserID: session.User.ID})
	return nil
}
