// Package views holds the server-rendered pages.
package views

import (
	"embed"
	"html/template"

	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/internal/services"
)

//go:embed templates/*.html
var files embed.FS

const (
	LoginPage     = "login.html"
	RegisterPage  = "register.html"
	DashboardPage = "dashboard.html"
)

// AuthData backs the login and register pages.
type AuthData struct {
	Email    string
	Username string
	Role     string
	Roles    []string
	Error    string
}

// DashboardData backs the dashboard page. Form is set only while the project
// form is shown.
type DashboardData struct {
	View    services.DashboardView
	Form    *services.ProjectForm
	Message string
}

// NewAuthData returns page data with the role choices filled in.
func NewAuthData() AuthData {
	return AuthData{Roles: models.Roles}
}

// Templates parses every page. It panics on a malformed template.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"selected": func(a, b string) bool { return a != "" && a == b },
	}).ParseFS(files, "templates/*.html"))
}
