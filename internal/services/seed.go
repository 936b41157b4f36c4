package services

import (
	"context"
	"fmt"

	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/pkg/logger"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "demo1234"

type demoAccount struct {
	email    string
	username string
	role     string
}

var demoAccounts = []demoAccount{
	{"cliente@demo.local", "carla", models.RoleClient},
	{"pm@demo.local", "pablo", models.RoleProjectManager},
	{"disenio@demo.local", "diana", models.RoleDesigner},
}

// SeedDemoData registers one account per role and three projects linking
// them. It does nothing when projects already exist.
func SeedDemoData(ctx context.Context, db *gorm.DB, accounts *AccountService, projects *ProjectService) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Project{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	ids := make(map[string]*models.Profile)
	for _, a := range demoAccounts {
		if _, err := accounts.Register(ctx, &RegisterRequest{Email: a.email, Password: DemoPassword, Username: a.username, Role: a.role}); err != nil {
			return fmt.Errorf("seed %s: %w", a.email, err)
		}

		session, err := accounts.Login(ctx, &LoginRequest{Email: a.email, Password: DemoPassword})
		if err != nil {
			return fmt.Errorf("seed login %s: %w", a.email, err)
		}
		profile, err := accounts.profiles.GetProfile(ctx, session.User.ID)
		if err != nil {
			return fmt.Errorf("seed profile %s: %w", a.email, err)
		}
		ids[a.role] = profile
	}

	client := ids[models.RoleClient]
	designer := ids[models.RoleDesigner]
	manager := ids[models.RoleProjectManager]

	seeds := []CreateProjectRequest{
		{Title: "Rediseño de marca", Description: "Logo, paleta y tipografías", Files: "brief.pdf", DesignerID: designer.ID, ClientID: client.ID},
		{Title: "Landing de lanzamiento", Description: "Página única con formulario de contacto", DesignerID: designer.ID, ClientID: client.ID},
		{Title: "Catálogo digital", Description: "Catálogo navegable de productos", DesignerID: designer.ID},
	}
	for i := range seeds {
		if _, err := projects.Create(ctx, &seeds[i], manager); err != nil {
			return fmt.Errorf("seed project %q: %w", seeds[i].Title, err)
		}
	}

	logger.Info().Int("accounts", len(demoAccounts)).Int("projects", len(seeds)).Msg("demo data seeded")
	return nil
}
