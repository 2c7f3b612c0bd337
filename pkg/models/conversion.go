package models

import "time"

// Conversion event statuses
const (
	ConversionStatusPending  = "pending"
	ConversionStatusApproved = "approved"
	ConversionStatusPaid     = "paid"
)

// ConversionEvent records one attributed sale. It carries the commission
// computed at recording time; tier re-assignments never retroactively change
// already-computed rows. Approved events form the payout basis.
type ConversionEvent struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	TenantID          uint       `json:"tenant_id" gorm:"index;not null"`
	ParticipationID   uint       `json:"participation_id" gorm:"index;not null"`
	CampaignID        uint       `json:"campaign_id" gorm:"index;not null"`
	AffiliateID       uint       `json:"affiliate_id" gorm:"index;not null"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency" gorm:"type:varchar(3);default:USD"`
	CommissionPercent float64    `json:"commission_percent"`
	CommissionAmount  float64    `json:"commission_amount"`
	Status            string     `json:"status" gorm:"type:varchar(16);default:approved;index"`
	OccurredAt        time.Time  `json:"occurred_at"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
