package models

import "time"

const (
	INVOICE_STATUS_DRAFT         = "draft"
	INVOICE_STATUS_OPEN          = "open"
	INVOICE_STATUS_PAID          = "paid"
	INVOICE_STATUS_UNCOLLECTIBLE = "uncollectible"
	INVOICE_STATUS_VOID          = "void"
)

const (
	INVOICE_PAYMENT_PENDING   = "pending"
	INVOICE_PAYMENT_COMPLETED = "completed"
	INVOICE_PAYMENT_FAILED    = "failed"
)

// Invoice is the immutable record of a completed purchase. The customer
// fields are a snapshot taken at purchase time; later profile edits do not
// rewrite past invoices.
type Invoice struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CustomerName      string    `gorm:"type:varchar(100);not null" json:"customerName"`
	CustomerEmail     string    `gorm:"type:varchar(200);not null;index" json:"customerEmail"`
	CustomerAvatarURL string    `gorm:"type:varchar(255);default:null" json:"customerAvatar,omitempty"`
	Plan              string    `gorm:"type:varchar(20);not null" json:"plan" validate:"oneof=basic advance"`
	InvoiceDate       time.Time `gorm:"not null" json:"invoice_date"`
	DueDate           time.Time `gorm:"not null" json:"due_date"`
	Status            string    `gorm:"type:varchar(20);not null" json:"status" validate:"oneof=draft open paid uncollectible void"`
	TotalAmount       int64     `gorm:"not null" json:"total_amount"`
	DocumentRef       string    `gorm:"type:varchar(255);not null" json:"document_ref"`
	PaymentStatus     string    `gorm:"type:varchar(20);not null" json:"payment_status" validate:"oneof=pending completed failed"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
