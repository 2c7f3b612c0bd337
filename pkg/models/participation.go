package models

import "time"

// Participation statuses. pending→active→completed, with pending→rejected and
// active→rejected as terminal alternates. No transition may skip active except
// direct rejection from pending.
const (
	ParticipationStatusPending   = "pending"
	ParticipationStatusActive    = "active"
	ParticipationStatusCompleted = "completed"
	ParticipationStatusRejected  = "rejected"
)

// ParticipationMetrics is the canonical metric key set for participations
type ParticipationMetrics struct {
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// CampaignParticipation links one affiliate to one campaign. Rows are unique
// per (campaign_id, affiliate_id) and are never physically deleted; rejection
// and completion are soft terminal states.
type CampaignParticipation struct {
	ID          uint                 `json:"id" gorm:"primaryKey"`
	TenantID    uint                 `json:"tenant_id" gorm:"index;not null"`
	CampaignID  uint                 `json:"campaign_id" gorm:"index:idx_participations_campaign_affiliate,unique;not null"`
	AffiliateID uint                 `json:"affiliate_id" gorm:"index:idx_participations_campaign_affiliate,unique;not null"`
	Status      string               `json:"status" gorm:"type:varchar(16);default:pending;index"`
	PromoCode   string               `json:"promo_code" gorm:"type:varchar(16);uniqueIndex;not null"`
	PromoLinks  StringSlice          `json:"promo_links" gorm:"type:jsonb"`
	Metrics     ParticipationMetrics `json:"metrics" gorm:"embedded;embeddedPrefix:metrics_"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// IsTerminal reports whether no further status transitions are allowed
func (p *CampaignParticipation) IsTerminal() bool {
	return p.Status == ParticipationStatusCompleted || p.Status == ParticipationStatusRejected
}
