package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/config"
	"github.com/huangang/projectdesk/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, false)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := openTestDB(t)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateProfile(t *testing.T, db *gorm.DB, id, username, role string) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: id, Username: username, Role: role}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create profile %s: %v", id, err)
	}
	return p
}

func strPtr(s string) *string { return &s }

// recordingNavigator remembers every route pushed.
type recordingNavigator struct {
	routes []string
}

func (n *recordingNavigator) Push(route string) { n.routes = append(n.routes, route) }

type stubSessions struct {
	session *auth.Session
	calls   int
}

func (s *stubSessions) GetCurrentSession(ctx context.Context, tokens auth.Tokens) *auth.Session {
	s.calls++
	return s.session
}

type stubProfiles struct {
	profile *models.Profile
	err     error
	calls   int
	byRole  map[string][]models.Profile
	roleErr error
}

func (s *stubProfiles) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.calls++
	return s.profile, s.err
}

func (s *stubProfiles) ListByRole(ctx context.Context, role string) ([]models.Profile, error) {
	s.calls++
	if s.roleErr != nil {
		return nil, s.roleErr
	}
	return s.byRole[role], nil
}

type stubProjects struct {
	projects []models.Project
	err      error
	calls    int
	// cancel, when set, runs during List to simulate teardown mid-flight.
	cancel func()
}

func (s *stubProjects) List(ctx context.Context, filter *ProjectFilter) ([]models.Project, error) {
	s.calls++
	if s.cancel != nil {
		s.cancel()
	}
	return s.projects, s.err
}

func testSession(userID string) *auth.Session {
	return &auth.Session{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         auth.User{ID: userID, Email: userID + "@example.com"},
	}
}
