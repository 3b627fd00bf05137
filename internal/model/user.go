package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleAdmin    = "admin"
	RoleTeamLead = "team_lead"
	RoleMember   = "member"
)

// User statuses.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents an account, optionally scoped to a tenant. The gateway
// works both in multi-tenant and tenant-less deployments, so TenantID is a
// nullable reference.
type User struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	Email                string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password             string         `json:"-" gorm:"type:varchar(255)"`
	FirstName            string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName             string         `json:"last_name" gorm:"type:varchar(100)"`
	Role                 string         `json:"role" gorm:"type:varchar(50);default:'member'"`
	TenantID             *uint          `json:"tenant_id,omitempty" gorm:"index"`
	Status               string         `json:"status" gorm:"type:varchar(20);default:'active'"`
	EmailVerified        bool           `json:"email_verified" gorm:"default:false"`
	VerificationToken    string         `json:"-" gorm:"type:varchar(64);index"`
	PasswordResetToken   string         `json:"-" gorm:"type:varchar(64);index"`
	PasswordResetExpires *time.Time     `json:"-"`
	LastLogin            *time.Time     `json:"last_login,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
