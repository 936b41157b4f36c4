package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangang/projectdesk/internal/models"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrProfileAmbiguous = errors.New("more than one profile matches")
	ErrInvalidRole      = errors.New("invalid role")
)

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfile returns the single profile for userID. Zero or several matches
// are errors.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var rows []models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", userID).Limit(2).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", userID, err)
	}

	switch len(rows) {
	case 0:
		return nil, ErrProfileNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, ErrProfileAmbiguous
	}
}

// ListByRole returns profiles with the given role ordered by username.
func (s *ProfileService) ListByRole(ctx context.Context, role string) ([]models.Profile, error) {
	profiles := []models.Profile{}
	if err := s.db.WithContext(ctx).Where("role = ?", role).Order("username ASC, id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles with role %s: %w", role, err)
	}
	return profiles, nil
}

// Create inserts a profile exactly as given.
func (s *ProfileService) Create(ctx context.Context, profile *models.Profile) error {
	if strings.TrimSpace(profile.ID) == "" {
		return errors.New("profile id is required")
	}
	if !models.IsValidRole(profile.Role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, profile.Role)
	}
	return s.db.WithContext(ctx).Create(profile).Error
}
