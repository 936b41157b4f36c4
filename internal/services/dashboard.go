package services

import (
	"context"
	"errors"

	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/pkg/logger"
)

const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"

	defaultDisplayName = "Usuario"
)

type DashboardPhase string

const (
	PhaseUnmounted       DashboardPhase = "unmounted"
	PhaseCheckingSession DashboardPhase = "checking_session"
	PhaseRedirecting     DashboardPhase = "redirecting"
	PhaseLoadingProfile  DashboardPhase = "loading_profile"
	PhaseLoadingProjects DashboardPhase = "loading_projects"
	PhaseReady           DashboardPhase = "ready"
	PhaseProfileFailed   DashboardPhase = "profile_failed"
)

var ErrNotMounted = errors.New("dashboard is not mounted")

type SessionReader interface {
	GetCurrentSession(ctx context.Context, tokens auth.Tokens) *auth.Session
}

type ProfileFetcher interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type ProjectLister interface {
	List(ctx context.Context, filter *ProjectFilter) ([]models.Project, error)
}

// Navigator receives route changes decided by a controller.
type Navigator interface {
	Push(route string)
}

// Dashboard drives one dashboard load: session, then profile, then projects.
type Dashboard struct {
	sessions SessionReader
	profiles ProfileFetcher
	projects ProjectLister
	nav      Navigator

	phase        DashboardPhase
	loading      bool
	session      *auth.Session
	role         string
	username     string
	items        []ProjectView
	showCrudForm bool
}

// DashboardView is what the dashboard renders.
type DashboardView struct {
	Phase        DashboardPhase `json:"phase"`
	Loading      bool           `json:"loading"`
	Role         string         `json:"role"`
	Username     string         `json:"username"`
	DisplayName  string         `json:"display_name"`
	ShowActions  bool           `json:"show_actions"`
	ShowCrudForm bool           `json:"show_crud_form"`
	Projects     []ProjectView  `json:"projects"`
}

func NewDashboard(sessions SessionReader, profiles ProfileFetcher, projects ProjectLister, nav Navigator) *Dashboard {
	return &Dashboard{
		sessions: sessions,
		profiles: profiles,
		projects: projects,
		nav:      nav,
		phase:    PhaseUnmounted,
		loading:  true,
		items:    []ProjectView{},
	}
}

// Mount moves an unmounted dashboard to checking_session. It reports false
// when the dashboard was already mounted.
func (d *Dashboard) Mount() bool {
	if d.phase != PhaseUnmounted {
		return false
	}
	d.phase = PhaseCheckingSession
	return true
}

// Load runs the session, profile and project steps. Data errors are logged
// and absorbed; only a cancelled ctx or a missing Mount is returned. State is
// committed only while ctx is live.
func (d *Dashboard) Load(ctx context.Context, tokens auth.Tokens) error {
	if d.phase != PhaseCheckingSession {
		return ErrNotMounted
	}

	session := d.sessions.GetCurrentSession(ctx, tokens)
	if err := ctx.Err(); err != nil {
		return err
	}
	if session == nil {
		d.phase = PhaseRedirecting
		d.nav.Push(RouteLogin)
		return nil
	}
	d.session = session
	d.phase = PhaseLoadingProfile

	profile, err := d.profiles.GetProfile(ctx, session.User.ID)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		logger.Error().Err(err).Str("user_id", session.User.ID).Msg("failed to load profile")
		d.loading = false
		d.phase = PhaseProfileFailed
		return nil
	}
	d.role = profile.Role
	d.username = profile.Username
	d.phase = PhaseLoadingProjects

	projects, err := d.projects.List(ctx, nil)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		logger.Error().Err(err).Str("user_id", session.User.ID).Msg("failed to load projects")
		d.items = []ProjectView{}
	} else {
		d.items = NewProjectViews(projects)
	}

	d.loading = false
	d.phase = PhaseReady
	return nil
}

// ToggleCrudForm switches between the table and the project form. Roles that
// cannot manage projects never see the form.
func (d *Dashboard) ToggleCrudForm() {
	if d.phase != PhaseReady || !d.ShowActions() {
		return
	}
	d.showCrudForm = !d.showCrudForm
}

func (d *Dashboard) ShowActions() bool {
	return models.CanManageProjects(d.role)
}

func (d *Dashboard) Phase() DashboardPhase  { return d.phase }
func (d *Dashboard) Session() *auth.Session { return d.session }
func (d *Dashboard) Role() string           { return d.role }

func (d *Dashboard) View() DashboardView {
	displayName := d.username
	if displayName == "" {
		displayName = defaultDisplayName
	}
	return DashboardView{
		Phase:        d.phase,
		Loading:      d.loading,
		Role:         d.role,
		Username:     d.username,
		DisplayName:  displayName,
		ShowActions:  d.ShowActions(),
		ShowCrudForm: d.showCrudForm,
		Projects:     d.items,
	}
}
