package models

import (
	"time"
)

const (
	RoleClient         = "Cliente"
	RoleProjectManager = "Project Manager"
	RoleDesigner       = "Diseñador"
)

// Roles lists the selectable roles in registration order.
var Roles = []string{RoleClient, RoleProjectManager, RoleDesigner}

// Profile is the application record for an auth provider user.
// ID is the provider's user identifier.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"size:100" json:"username"`
	Role      string    `gorm:"size:50;index;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (Profile) TableName() string { return "profiles" }

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanManageProjects reports whether role may see and use project actions:
// the add button, per-row edit/delete, the form and the write API.
// An absent role is not eligible.
func CanManageProjects(role string) bool {
	return role != "" && role != RoleClient
}
