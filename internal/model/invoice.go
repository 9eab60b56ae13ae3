package model

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
)

// Invoice is a sales invoice. Totals are computed by the billing package at
// write time; the notification engine reads DueDate and Status for the
// invoice-due scan.
type Invoice struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null"`
	Number       string         `json:"number" gorm:"type:varchar(50);index;not null"`
	CustomerName string         `json:"customer_name" gorm:"type:varchar(100)"`
	Status       string         `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	DueDate      *time.Time     `json:"due_date,omitempty"`
	Discount     float64        `json:"discount"`
	Subtotal     float64        `json:"subtotal"`
	VATAmount    float64        `json:"vat_amount"`
	GrandTotal   float64        `json:"grand_total"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Items []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

// InvoiceItem is a single invoice line.
type InvoiceItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	InvoiceID   uint    `json:"invoice_id" gorm:"index;not null"`
	Description string  `json:"description" gorm:"type:varchar(200)"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	VATRate     float64 `json:"vat_rate"`
	VATAmount   float64 `json:"vat_amount"`
	LineTotal   float64 `json:"line_total"`
}
