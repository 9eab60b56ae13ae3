package model

import (
	"time"
)

// CompanySetting holds per-tenant configuration values such as the trade
// license expiry date used by the license-expiry scan.
type CompanySetting struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	TenantID           uint       `json:"tenant_id" gorm:"uniqueIndex;not null"`
	TradeLicenseNumber string     `json:"trade_license_number,omitempty" gorm:"type:varchar(50)"`
	TradeLicenseExpiry *time.Time `json:"trade_license_expiry,omitempty"`
	VATRegistered      bool       `json:"vat_registered" gorm:"default:false"`
	TRN                string     `json:"trn,omitempty" gorm:"type:varchar(20)"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
