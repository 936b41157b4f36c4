package services

import (
	"context"
	"testing"
	"time"

	"github.com/huangang/projectdesk/internal/auth"
)

func newSessionFixture(t *testing.T, ttl time.Duration) (*SessionService, *auth.MemoryProvider, *auth.Session) {
	t.Helper()
	provider := auth.NewMemoryProvider("session-secret", ttl)
	svc := NewSessionService(provider, NewSessionHub())
	_, session, err := provider.SignUp(context.Background(), "ana@example.com", "secreto123")
	if err != nil {
		t.Fatal(err)
	}
	return svc, provider, session
}

func collect(svc *SessionService, userID string) (*[]SessionEvent, func()) {
	events := &[]SessionEvent{}
	unsubscribe := svc.OnSessionChange(userID, func(e SessionEvent) {
		*events = append(*events, e)
	})
	return events, unsubscribe
}

func TestSessionService_GetCurrentSession(t *testing.T) {
	svc, _, session := newSessionFixture(t, time.Hour)
	ctx := context.Background()

	if got := svc.GetCurrentSession(ctx, auth.Tokens{}); got != nil {
		t.Errorf("empty tokens should yield nil, got %+v", got)
	}
	if got := svc.GetCurrentSession(ctx, auth.Tokens{AccessToken: "garbage"}); got != nil {
		t.Errorf("invalid token should yield nil, got %+v", got)
	}

	got := svc.GetCurrentSession(ctx, session.Tokens())
	if got == nil || got.User.ID != session.User.ID {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestSessionService_RefreshPublishesEvent(t *testing.T) {
	svc, _, session := newSessionFixture(t, -time.Minute)
	events, unsubscribe := collect(svc, session.User.ID)
	defer unsubscribe()

	got := svc.GetCurrentSession(context.Background(), session.Tokens())
	if got == nil {
		t.Fatal("expected a refreshed session")
	}
	if len(*events) != 1 || (*events)[0].Type != auth.EventTokenRefreshed || (*events)[0].Session != got {
		t.Errorf("unexpected events: %+v", *events)
	}
	if got.RefreshToken == session.RefreshToken {
		t.Fatal("refresh token should rotate")
	}

	if again := svc.GetCurrentSession(context.Background(), session.Tokens()); again != nil {
		t.Error("the replaced refresh token should no longer resolve")
	}
	if next := svc.GetCurrentSession(context.Background(), got.Tokens()); next == nil {
		t.Error("the rotated tokens should resolve")
	}
}

func TestSessionService_SignInAndSignOut(t *testing.T) {
	svc, _, first := newSessionFixture(t, time.Hour)
	ctx := context.Background()
	events, unsubscribe := collect(svc, first.User.ID)

	session, err := svc.SignInWithPassword(ctx, "ana@example.com", "secreto123")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if err := svc.SignOut(ctx, session); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	if len(*events) != 2 {
		t.Fatalf("expected 2 events, got %+v", *events)
	}
	if (*events)[0].Type != auth.EventSignedIn || (*events)[0].Session == nil {
		t.Errorf("first event = %+v", (*events)[0])
	}
	if (*events)[1].Type != auth.EventSignedOut || (*events)[1].Session != nil {
		t.Errorf("second event = %+v", (*events)[1])
	}
	if got := svc.GetCurrentSession(ctx, session.Tokens()); got != nil {
		t.Error("signed out session should no longer resolve")
	}

	unsubscribe()
	if _, err := svc.SignInWithPassword(ctx, "ana@example.com", "secreto123"); err != nil {
		t.Fatal(err)
	}
	if len(*events) != 2 {
		t.Errorf("listener still called after unsubscribe: %+v", *events)
	}

	if err := svc.SignOut(ctx, nil); err != nil {
		t.Errorf("SignOut(nil) = %v", err)
	}
}

func TestSessionService_SignInFailureIsSilent(t *testing.T) {
	svc, _, session := newSessionFixture(t, time.Hour)
	events, unsubscribe := collect(svc, session.User.ID)
	defer unsubscribe()

	if _, err := svc.SignInWithPassword(context.Background(), "ana@example.com", "nope"); err == nil {
		t.Fatal("expected an error")
	}
	if len(*events) != 0 {
		t.Errorf("failed sign in should not publish, got %+v", *events)
	}
}
