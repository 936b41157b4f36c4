package services

import (
	"time"

	"github.com/huangang/projectdesk/internal/models"
)

const (
	PlaceholderClient   = "Sin cliente"
	PlaceholderDesigner = "Sin diseñador"
	PlaceholderManager  = "Sin Project Manager"
	PlaceholderFile     = "Sin archivo"
)

// ProjectView is the display projection of a project. Its name fields are
// never empty.
type ProjectView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	File         string    `json:"file"`
	CreatedAt    time.Time `json:"created_at"`
	ClientID     string    `json:"client_id,omitempty"`
	DesignerID   string    `json:"designer_id,omitempty"`
	ManagerID    string    `json:"manager_id,omitempty"`
	ClientName   string    `json:"client_name"`
	DesignerName string    `json:"designer_name"`
	ManagerName  string    `json:"manager_name"`
}

func NewProjectView(p *models.Project) ProjectView {
	return ProjectView{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		File:         valueOr(p.Files, PlaceholderFile),
		CreatedAt:    p.CreatedAt,
		ClientID:     valueOr(p.ClientID, ""),
		DesignerID:   valueOr(p.DesignerID, ""),
		ManagerID:    valueOr(p.ManagerID, ""),
		ClientName:   displayName(p.ClientID, p.Client, PlaceholderClient),
		DesignerName: displayName(p.DesignerID, p.Designer, PlaceholderDesigner),
		ManagerName:  displayName(p.ManagerID, p.Manager, PlaceholderManager),
	}
}

// NewProjectViews maps projects in order; the result is never nil.
func NewProjectViews(projects []models.Project) []ProjectView {
	views := make([]ProjectView, 0, len(projects))
	for i := range projects {
		views = append(views, NewProjectView(&projects[i]))
	}
	return views
}

func displayName(ref *string, profile *models.Profile, placeholder string) string {
	if ref == nil || *ref == "" || profile == nil || profile.Username == "" {
		return placeholder
	}
	return profile.Username
}

func valueOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
