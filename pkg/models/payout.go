package models

import "time"

// Payout statuses
const (
	PayoutStatusPending = "pending"
	PayoutStatusPaid    = "paid"
	PayoutStatusFailed  = "failed"
)

// Payout is one commission disbursement to an affiliate
type Payout struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	TenantID         uint       `json:"tenant_id" gorm:"index;not null"`
	AffiliateID      uint       `json:"affiliate_id" gorm:"index;not null"`
	Amount           float64    `json:"amount"`
	Currency         string     `json:"currency" gorm:"type:varchar(3);default:USD"`
	Status           string     `json:"status" gorm:"type:varchar(16);default:pending;index"`
	StripeTransferID string     `json:"stripe_transfer_id,omitempty" gorm:"type:varchar(64)"`
	IdempotencyKey   string     `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	FailureReason    string     `json:"failure_reason,omitempty" gorm:"type:text"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AuditLog records admin mutations for traceability
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Action    string    `json:"action" gorm:"type:varchar(64);index"`
	Entity    string    `json:"entity" gorm:"type:varchar(32)"`
	EntityID  uint      `json:"entity_id"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
