package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/middleware"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/internal/services"
	"github.com/huangang/projectdesk/internal/views"
	"github.com/huangang/projectdesk/pkg/logger"
	"github.com/huangang/projectdesk/pkg/response"
)

// routeRecorder is the Navigator of a single request: it remembers the
// first route pushed.
type routeRecorder struct {
	route string
}

func (r *routeRecorder) Push(route string) {
	if r.route == "" {
		r.route = route
	}
}

// resolvedSession hands back a session already resolved by middleware, so
// rotated tokens are not refreshed twice.
type resolvedSession struct {
	session *auth.Session
}

func (r resolvedSession) GetCurrentSession(context.Context, auth.Tokens) *auth.Session {
	return r.session
}

// flashCookie carries the outcome of a form post across the redirect.
const (
	flashCookie = "pd-flash"
	flashMaxAge = 60
)

type DashboardHandler struct {
	sessions *services.SessionService
	profiles *services.ProfileService
	projects *services.ProjectService
	cookies  middleware.CookieOptions
}

func NewDashboardHandler(sessions *services.SessionService, profiles *services.ProfileService, projects *services.ProjectService, cookies middleware.CookieOptions) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, profiles: profiles, projects: projects, cookies: cookies}
}

// load mounts and loads a dashboard for the request. It returns nil when the
// response has already been written.
func (h *DashboardHandler) load(c *gin.Context, onRedirect func(route string)) *services.Dashboard {
	var sessions services.SessionReader = h.sessions
	known := middleware.GetSession(c)
	if known != nil {
		sessions = resolvedSession{session: known}
	}

	nav := &routeRecorder{}
	d := services.NewDashboard(sessions, h.profiles, h.projects, nav)
	d.Mount()

	tokens := middleware.RequestTokens(c)
	if err := d.Load(c.Request.Context(), tokens); err != nil {
		logger.Debug().Err(err).Msg("dashboard load abandoned")
		c.Abort()
		return nil
	}
	if nav.route != "" {
		onRedirect(nav.route)
		return nil
	}
	if s := d.Session(); known == nil && s.RotatedFrom(tokens) {
		middleware.SetSessionCookies(c, s, h.cookies)
	}
	return d
}

func (h *DashboardHandler) redirect(c *gin.Context) func(string) {
	return func(route string) {
		c.Redirect(http.StatusFound, route)
	}
}

func (h *DashboardHandler) newForm(c *gin.Context, d *services.Dashboard) *services.ProjectForm {
	view := d.View()
	author := &models.Profile{ID: d.Session().User.ID, Username: view.Username, Role: view.Role}
	form := services.NewProjectForm(h.profiles, h.projects, author)
	form.LoadOptions(c.Request.Context())
	return form
}

// Page renders the project table, or the project form with ?form=1.
// ?edit={id} preloads a project into the form.
// GET /dashboard
func (h *DashboardHandler) Page(c *gin.Context) {
	d := h.load(c, h.redirect(c))
	if d == nil {
		return
	}

	data := views.DashboardData{Message: h.takeFlash(c)}
	if c.Query("form") == "1" {
		d.ToggleCrudForm()
	}
	if d.View().ShowCrudForm {
		data.Form = h.newForm(c, d)
		if id := c.Query("edit"); id != "" {
			if err := data.Form.LoadProject(c.Request.Context(), id); err != nil {
				data.Message = services.MsgFormNoProject
			}
		}
	}

	data.View = d.View()
	c.HTML(http.StatusOK, views.DashboardPage, data)
}

// Submit handles the project form: create, edit or delete. On success it
// redirects to the table with the outcome as a flash message; otherwise the
// form comes back with its values and the message.
// POST /dashboard/projects
func (h *DashboardHandler) Submit(c *gin.Context) {
	var in services.ProjectFormInput
	_ = c.ShouldBind(&in)
	if file, err := c.FormFile("file"); err == nil && file.Filename != "" {
		in.FileName = file.Filename
	}

	author := &models.Profile{
		ID:       middleware.GetUserID(c),
		Username: middleware.GetUsername(c),
		Role:     middleware.GetRole(c),
	}
	form := services.NewProjectForm(h.profiles, h.projects, author)
	if form.Submit(c.Request.Context(), in) {
		h.setFlash(c, form.Message)
		c.Redirect(http.StatusSeeOther, services.RouteDashboard)
		return
	}

	d := h.load(c, h.redirect(c))
	if d == nil {
		return
	}

	status := http.StatusUnprocessableEntity
	data := views.DashboardData{Message: form.Message}
	if !d.ShowActions() {
		status = http.StatusForbidden
	} else {
		d.ToggleCrudForm()
		form.LoadOptions(c.Request.Context())
		data.Form = form
	}

	data.View = d.View()
	c.HTML(status, views.DashboardPage, data)
}

func (h *DashboardHandler) setFlash(c *gin.Context, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, msg, flashMaxAge, services.RouteDashboard, h.cookies.Domain, h.cookies.Secure, true)
}

// takeFlash returns the pending flash message, if any, and clears it.
func (h *DashboardHandler) takeFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, services.RouteDashboard, h.cookies.Domain, h.cookies.Secure, true)
	return msg
}

// APIDashboard returns the dashboard view model.
// GET /api/dashboard
func (h *DashboardHandler) APIDashboard(c *gin.Context) {
	d := h.load(c, func(string) {
		response.Unauthorized(c, "authentication required")
	})
	if d == nil {
		return
	}
	if d.Phase() == services.PhaseProfileFailed {
		logger.Warn().Str("user_id", d.Session().User.ID).Msg("dashboard served without profile")
	}
	response.Success(c, d.View())
}
