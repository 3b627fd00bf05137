package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Team visibility values.
const (
	TeamVisibilityPrivate = "private"
	TeamVisibilityTenant  = "tenant"
)

// ResourceQuota caps what a team may consume.
type ResourceQuota struct {
	MaxMembers  int `json:"max_members"`
	MaxStorage  int `json:"max_storage"`
	MaxProjects int `json:"max_projects"`
}

// TeamSettings is a jsonb settings blob on the team row.
type TeamSettings struct {
	ResourceQuota        ResourceQuota `json:"resource_quota"`
	Visibility           string        `json:"visibility"`
	AllowResourceSharing bool          `json:"allow_resource_sharing"`
}

// DefaultTeamSettings are applied when a team is created without explicit
// settings.
func DefaultTeamSettings() TeamSettings {
	return TeamSettings{
		ResourceQuota: ResourceQuota{
			MaxMembers:  50,
			MaxStorage:  100,
			MaxProjects: 25,
		},
		Visibility:           TeamVisibilityPrivate,
		AllowResourceSharing: false,
	}
}

// Value implements driver.Valuer for gorm.
func (s TeamSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for gorm.
func (s *TeamSettings) Scan(value interface{}) error {
	if value == nil {
		*s = DefaultTeamSettings()
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported team settings column type %T", value)
	}
}

// Team is a hierarchical grouping within a tenant. ParentTeamID forms a
// single-parent tree; a team with children cannot be deleted.
type Team struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);uniqueIndex:idx_teams_tenant_name"`
	TenantID     uint           `json:"tenant_id" gorm:"uniqueIndex:idx_teams_tenant_name;index;not null"`
	Description  string         `json:"description" gorm:"type:text"`
	ParentTeamID *uint          `json:"parent_team_id,omitempty" gorm:"index"`
	OwnerID      uint           `json:"owner_id" gorm:"index;not null"`
	Settings     TeamSettings   `json:"settings" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Members []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

// TeamMember associates a user with a team. The owner always holds an
// implicit admin membership inserted in the same transaction as the team.
type TeamMember struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	TeamID   uint      `json:"team_id" gorm:"uniqueIndex:idx_team_members_team_user;index;not null"`
	UserID   uint      `json:"user_id" gorm:"uniqueIndex:idx_team_members_team_user;index;not null"`
	Role     string    `json:"role" gorm:"type:varchar(50);not null;default:'member'"`
	JoinedAt time.Time `json:"joined_at"`
}
