package models

import "time"

const (
	PLAN_BASIC   = "basic"
	PLAN_ADVANCE = "advance"
)

const (
	STATUS_ACTIVE    = "active"
	STATUS_INACTIVE  = "inactive"
	STATUS_CANCELLED = "cancelled"
)

const (
	PAYMENT_STATUS_PAID    = "paid"
	PAYMENT_STATUS_PENDING = "pending"
	PAYMENT_STATUS_FAILED  = "failed"
)

const PAYMENT_METHOD_GATEWAY = "gateway"

// Subscription is the canonical entitlement record, one per user. The user
// row carries a projected summary of plan/status/expiry; this table stays
// the source of truth.
type Subscription struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex" json:"userId"`
	Plan          string    `gorm:"type:varchar(20);not null" json:"plan" validate:"oneof=basic advance"`
	StartDate     time.Time `gorm:"not null" json:"startDate"`
	EndDate       time.Time `gorm:"not null" json:"endDate"`
	PaymentMethod string    `gorm:"type:varchar(20);not null;default:'gateway'" json:"paymentMethod"`
	Status        string    `gorm:"type:varchar(20);not null;default:'inactive'" json:"status" validate:"oneof=active inactive cancelled"`
	BillingRef    string    `gorm:"type:varchar(191);index" json:"billingRef"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;default:'paid'" json:"paymentStatus" validate:"oneof=paid pending failed"`
	IsRecurring   bool      `gorm:"default:false" json:"isRecurring"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports the steady-state entitlement check. Expiry is evaluated
// lazily here, not by a background sweep, so a stale "active" row is still
// reported inactive once its end date has passed.
func (s *Subscription) IsActive() bool {
	return s.Status == STATUS_ACTIVE && s.PaymentStatus == PAYMENT_STATUS_PAID && time.Now().Before(s.EndDate)
}

// IsExpired reports whether the validity window has ended.
func (s *Subscription) IsExpired() bool {
	return time.Now().After(s.EndDate)
}
