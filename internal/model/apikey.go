package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// API key permissions.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// Permissions is a subset of {read, write, admin} stored as a jsonb column.
type Permissions []string

// Value implements driver.Valuer for gorm.
func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		p = Permissions{PermissionRead}
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for gorm.
func (p *Permissions) Scan(value interface{}) error {
	if value == nil {
		*p = Permissions{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported permissions column type %T", value)
	}
}

// Contains reports whether the permission set includes the given permission.
func (p Permissions) Contains(permission string) bool {
	for _, candidate := range p {
		if candidate == permission {
			return true
		}
	}
	return false
}

// ValidPermissions reports whether every entry is a known permission.
func ValidPermissions(perms []string) bool {
	for _, p := range perms {
		switch p {
		case PermissionRead, PermissionWrite, PermissionAdmin:
		default:
			return false
		}
	}
	return true
}

// APIKey is a machine credential for agent callers. The key string itself is
// the lookup handle; ownership is exclusive to one user.
type APIKey struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Key         string         `json:"key" gorm:"type:varchar(64);uniqueIndex"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	TenantID    *uint          `json:"tenant_id,omitempty" gorm:"index"`
	Description string         `json:"description" gorm:"type:varchar(200)"`
	Permissions Permissions    `json:"permissions" gorm:"type:jsonb"`
	ExpiresAt   time.Time      `json:"expires_at" gorm:"index"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// Expired reports whether the key is past its expiry at the given instant.
func (k *APIKey) Expired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}
