package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles within a tenant. RoleStaff is the lowest-privilege default
// assigned at first login.
const (
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleHR         = "hr"
	RoleAccountant = "accountant"
)

// User represents an authenticated principal. Users are created lazily on
// first successful authentication and belong to exactly one tenant at a time.
type User struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ExternalID string         `json:"external_id" gorm:"type:varchar(255);uniqueIndex"`
	Email      string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name       string         `json:"name" gorm:"type:varchar(100)"`
	Role       string         `json:"role" gorm:"type:varchar(20);not null;default:'staff'"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
