package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangang/projectdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrProjectIncomplete = errors.New("title, description and designer are required")
)

// ProjectService is the project repository.
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectFilter struct {
	OwnerID string `form:"owner_id"`
}

type CreateProjectRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Files       string `json:"files" form:"files"`
	DesignerID  string `json:"designer_id" form:"designer_id"`
	ClientID    string `json:"client_id" form:"client_id"`
	ManagerID   string `json:"manager_id" form:"manager_id"`
}

// Validate requires title, description and a designer.
func (r *CreateProjectRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Description) == "" || r.DesignerID == "" {
		return ErrProjectIncomplete
	}
	return nil
}

// UpdateProjectRequest changes only the non-nil fields. An empty string
// clears an optional field.
type UpdateProjectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Files       *string `json:"files"`
	DesignerID  *string `json:"designer_id"`
	ClientID    *string `json:"client_id"`
	ManagerID   *string `json:"manager_id"`
}

func (s *ProjectService) withProfiles(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Client").
		Preload("Designer").
		Preload("Manager")
}

// List returns projects with their client, designer and manager profiles,
// newest first. A non-empty filter.OwnerID restricts the result to that owner.
func (s *ProjectService) List(ctx context.Context, filter *ProjectFilter) ([]models.Project, error) {
	query := s.withProfiles(ctx)
	if filter != nil && filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	projects := []models.Project{}
	if err := query.Order("created_at DESC").Order("id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.withProfiles(ctx).Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &project, nil
}

// Create stores a new project owned by creator. A Project Manager creating a
// project without an explicit manager becomes its manager.
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest, creator *models.Profile) (*models.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	managerID := req.ManagerID
	if managerID == "" && creator != nil && creator.Role == models.RoleProjectManager {
		managerID = creator.ID
	}

	project := models.Project{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Files:       optional(req.Files),
		DesignerID:  optional(req.DesignerID),
		ClientID:    optional(req.ClientID),
		ManagerID:   optional(managerID),
	}
	if creator != nil {
		project.OwnerID = optional(creator.ID)
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.GetByID(ctx, project.ID)
}

func (s *ProjectService) Update(ctx context.Context, id string, req *UpdateProjectRequest) (*models.Project, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ErrProjectIncomplete
		}
		updates["name"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, ErrProjectIncomplete
		}
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Files != nil {
		updates["files"] = optional(*req.Files)
	}
	if req.DesignerID != nil {
		if *req.DesignerID == "" {
			return nil, ErrProjectIncomplete
		}
		updates["designer_id"] = *req.DesignerID
	}
	if req.ClientID != nil {
		updates["client_id"] = optional(*req.ClientID)
	}
	if req.ManagerID != nil {
		updates["manager_id"] = optional(*req.ManagerID)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update project %s: %w", id, err)
		}
	}
	return s.GetByID(ctx, id)
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{})
	if result.Error != nil {
		return fmt.Errorf("delete project %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
