package model

import (
	"time"
)

// Notification types. Document-expiry subtypes come from HR records, billing
// subtypes from accounting.
const (
	NotificationPassportExpiry = "passport_expiry"
	NotificationVisaExpiry     = "visa_expiry"
	NotificationContractExpiry = "contract_expiry"
	NotificationLicenseExpiry  = "license_expiry"
	NotificationVATDue         = "vat_due"
	NotificationInvoiceDue     = "invoice_due"
)

// Notification statuses. Transitions are one-way: unread -> read.
const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// Notification is a per-recipient reminder record. The dedup key is derived
// from (type, recipient, related entity, calendar day) and is unique
// system-wide, which is what makes the expiry scans idempotent.
type Notification struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	UserID   uint       `json:"user_id" gorm:"index;not null"`
	TenantID uint       `json:"tenant_id" gorm:"index;not null"`
	Type     string     `json:"type" gorm:"type:varchar(40);not null"`
	Title    string     `json:"title" gorm:"type:varchar(200);not null"`
	Message  string     `json:"message" gorm:"type:text"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Link     string     `json:"link,omitempty" gorm:"type:varchar(255)"`
	DedupKey string     `json:"-" gorm:"type:varchar(255);uniqueIndex;not null"`
	Status   string     `json:"status" gorm:"type:varchar(10);not null;default:'unread'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
