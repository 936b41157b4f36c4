package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/pkg/logger"
)

const (
	MsgFormIncomplete = "⚠️ Por favor, completá todos los campos obligatorios."
	MsgFormForbidden  = "⛔ Tu rol no permite gestionar proyectos."
	MsgFormNoProject  = "⚠️ Seleccioná un proyecto primero."
	MsgFormSaveFailed = "⚠️ No se pudo guardar el proyecto."
)

type ProfileLister interface {
	ListByRole(ctx context.Context, role string) ([]models.Profile, error)
}

type ProjectWriter interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, req *CreateProjectRequest, creator *models.Profile) (*models.Project, error)
	Update(ctx context.Context, id string, req *UpdateProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectFormInput is what the browser posts from the project form.
type ProjectFormInput struct {
	Action      string `form:"action"`
	ProjectID   string `form:"project_id"`
	Title       string `form:"title"`
	Description string `form:"description"`
	FileName    string `form:"file_name"`
	DesignerID  string `form:"designer_id"`
	ClientID    string `form:"client_id"`
}

// ProjectForm collects and submits one project's fields on behalf of author.
type ProjectForm struct {
	profiles ProfileLister
	projects ProjectWriter
	author   *models.Profile

	ProjectID   string
	Title       string
	Description string
	FileName    string
	DesignerID  string
	ClientID    string
	Message     string

	Designers []models.Profile
	Clients   []models.Profile
}

func NewProjectForm(profiles ProfileLister, projects ProjectWriter, author *models.Profile) *ProjectForm {
	return &ProjectForm{
		profiles:  profiles,
		projects:  projects,
		author:    author,
		Designers: []models.Profile{},
		Clients:   []models.Profile{},
	}
}

// LoadOptions fetches designer and client choices. Failures leave the
// corresponding list empty.
func (f *ProjectForm) LoadOptions(ctx context.Context) {
	if designers, err := f.profiles.ListByRole(ctx, models.RoleDesigner); err != nil {
		logger.Error().Err(err).Msg("failed to load designers")
	} else {
		f.Designers = designers
	}
	if clients, err := f.profiles.ListByRole(ctx, models.RoleClient); err != nil {
		logger.Error().Err(err).Msg("failed to load clients")
	} else {
		f.Clients = clients
	}
}

// Bind copies posted values into the form. Only the base name of an attached
// file is kept.
func (f *ProjectForm) Bind(in ProjectFormInput) {
	f.ProjectID = in.ProjectID
	f.Title = in.Title
	f.Description = in.Description
	f.DesignerID = in.DesignerID
	f.ClientID = in.ClientID
	f.FileName = baseFileName(in.FileName)
}

// LoadProject fills the form from an existing project for editing.
func (f *ProjectForm) LoadProject(ctx context.Context, id string) error {
	p, err := f.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	f.ProjectID = p.ID
	f.Title = p.Title
	f.Description = p.Description
	f.FileName = valueOr(p.Files, "")
	f.DesignerID = valueOr(p.DesignerID, "")
	f.ClientID = valueOr(p.ClientID, "")
	return nil
}

func (f *ProjectForm) Editing() bool {
	return f.ProjectID != ""
}

func (f *ProjectForm) AuthorRole() string {
	if f.author == nil {
		return ""
	}
	return f.author.Role
}

func (f *ProjectForm) request() *CreateProjectRequest {
	return &CreateProjectRequest{
		Title:       f.Title,
		Description: f.Description,
		Files:       f.FileName,
		DesignerID:  f.DesignerID,
		ClientID:    f.ClientID,
	}
}

func (f *ProjectForm) allowed() bool {
	if models.CanManageProjects(f.AuthorRole()) {
		return true
	}
	f.Message = MsgFormForbidden
	return false
}

// Create validates and stores a new project. It reports whether the project
// was stored; the outcome is always described in Message.
func (f *ProjectForm) Create(ctx context.Context) bool {
	if !f.allowed() {
		return false
	}
	req := f.request()
	if err := req.Validate(); err != nil {
		f.Message = MsgFormIncomplete
		return false
	}

	if _, err := f.projects.Create(ctx, req, f.author); err != nil {
		logger.Error().Err(err).Str("title", f.Title).Msg("failed to create project")
		f.Message = MsgFormSaveFailed
		return false
	}
	f.Message = fmt.Sprintf("✅ Creado: %s (%s)", f.Title, f.AuthorRole())
	return true
}

func (f *ProjectForm) Edit(ctx context.Context) bool {
	if !f.allowed() {
		return false
	}
	if !f.Editing() {
		f.Message = MsgFormNoProject
		return false
	}
	req := f.request()
	if err := req.Validate(); err != nil {
		f.Message = MsgFormIncomplete
		return false
	}

	update := &UpdateProjectRequest{
		Title:       &req.Title,
		Description: &req.Description,
		DesignerID:  &req.DesignerID,
		ClientID:    &req.ClientID,
	}
	if req.Files != "" {
		update.Files = &req.Files
	}
	if _, err := f.projects.Update(ctx, f.ProjectID, update); err != nil {
		logger.Error().Err(err).Str("project_id", f.ProjectID).Msg("failed to update project")
		f.Message = MsgFormSaveFailed
		return false
	}
	f.Message = fmt.Sprintf("✏️ Editado: %s", f.Title)
	return true
}

// Delete removes the selected project and clears the form fields.
func (f *ProjectForm) Delete(ctx context.Context) bool {
	if !f.allowed() {
		return false
	}
	if !f.Editing() {
		f.Message = MsgFormNoProject
		return false
	}

	title := f.Title
	if title == "" {
		if p, err := f.projects.GetByID(ctx, f.ProjectID); err == nil {
			title = p.Title
		}
	}

	if err := f.projects.Delete(ctx, f.ProjectID); err != nil {
		if !errors.Is(err, ErrProjectNotFound) {
			logger.Error().Err(err).Str("project_id", f.ProjectID).Msg("failed to delete project")
		}
		f.Message = MsgFormSaveFailed
		return false
	}

	f.Message = fmt.Sprintf("🗑️ Eliminado: %s", title)
	f.ProjectID = ""
	f.Title = ""
	f.Description = ""
	f.FileName = ""
	f.DesignerID = ""
	f.ClientID = ""
	return true
}

// Submit dispatches on in.Action: "create", "edit" or "delete".
func (f *ProjectForm) Submit(ctx context.Context, in ProjectFormInput) bool {
	f.Bind(in)
	switch in.Action {
	case "edit":
		return f.Edit(ctx)
	case "delete":
		return f.Delete(ctx)
	default:
		return f.Create(ctx)
	}
}

func baseFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := path.Base(path.Clean("/" + name))
	if base == "/" {
		return ""
	}
	return base
}
