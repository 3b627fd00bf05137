package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant statuses.
const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Tenant is an isolated organizational namespace. Tenants are deactivated
// rather than hard-deleted; removing one revokes its API keys first.
type Tenant struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	OrganizationName string         `json:"organization_name" gorm:"type:varchar(100)"`
	ContactEmail     string         `json:"contact_email" gorm:"type:varchar(100);uniqueIndex"`
	Status           string         `json:"status" gorm:"type:varchar(20);default:'active'"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}
