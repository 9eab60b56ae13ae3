package model

import (
	"time"

	"gorm.io/gorm"
)

// Employee is an HR record. The notification engine only reads its document
// date fields; ownership of the record belongs to the HR module.
type Employee struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	TenantID        uint           `json:"tenant_id" gorm:"index;not null"`
	Name            string         `json:"name" gorm:"type:varchar(100);not null"`
	Email           string         `json:"email,omitempty" gorm:"type:varchar(100)"`
	Position        string         `json:"position,omitempty" gorm:"type:varchar(100)"`
	PassportNumber  string         `json:"passport_number,omitempty" gorm:"type:varchar(50)"`
	PassportExpiry  *time.Time     `json:"passport_expiry,omitempty"`
	VisaNumber      string         `json:"visa_number,omitempty" gorm:"type:varchar(50)"`
	VisaExpiry      *time.Time     `json:"visa_expiry,omitempty"`
	ContractEndDate *time.Time     `json:"contract_end_date,omitempty"`
	ContractActive  bool           `json:"contract_active" gorm:"default:true"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
