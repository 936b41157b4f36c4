package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a managed piece of work owned by a client and optionally
// assigned a designer and a project manager.
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"column:name;size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Files       *string   `gorm:"column:files;size:500" json:"files"` // attachment filename only
	OwnerID     *string   `gorm:"size:36;index" json:"owner_id"`
	ClientID    *string   `gorm:"size:36;index" json:"client_id"`
	DesignerID  *string   `gorm:"size:36;index" json:"designer_id"`
	ManagerID   *string   `gorm:"size:36;index" json:"manager_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Client   *Profile `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Designer *Profile `gorm:"foreignKey:DesignerID" json:"designer,omitempty"`
	Manager  *Profile `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
