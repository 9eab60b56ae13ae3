package model

import (
	"time"
)

// DomainMapping associates an email domain with a tenant so that new users
// from that domain are auto-assigned. Domains are stored lower-cased; at most
// one active mapping may exist per domain.
type DomainMapping struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Domain    string    `json:"domain" gorm:"type:varchar(255);uniqueIndex;not null"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
