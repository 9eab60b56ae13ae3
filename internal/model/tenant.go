package model

import (
	"time"

	"gorm.io/gorm"
)

// DefaultTenantID is the id of the fallback tenant. The row is seeded at
// startup and is never deleted.
const DefaultTenantID uint = 1

// Tenant represents an isolated company whose data must not be visible to
// other tenants.
type Tenant struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"type:varchar(100);not null"`
	ShopName string `json:"shop_name,omitempty" gorm:"type:varchar(100)"`
	Email    string `json:"email,omitempty" gorm:"type:varchar(100)"`
	Phone    string `json:"phone,omitempty" gorm:"type:varchar(30)"`
	// Comma-separated list of enabled feature modules. Empty means all
	// modules are enabled.
	EnabledModules string         `json:"enabled_modules,omitempty" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
