package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Campaign statuses. Transitions are monotonic: draft→active,
// active→completed, active→archived, completed→archived. No reverse moves.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusArchived  = "archived"
)

// CampaignRequirements gates who may join a campaign
type CampaignRequirements struct {
	MinFollowers int64  `json:"min_followers,omitempty"`
	Niche        string `json:"niche,omitempty"`
}

// Value implements driver.Valuer
func (r CampaignRequirements) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner
func (r *CampaignRequirements) Scan(value any) error {
	if value == nil {
		*r = CampaignRequirements{}
		return nil
	}
	return scanJSON(value, r)
}

// CampaignRewards carries the campaign-level reward rules. A non-zero
// CommissionPercent overrides the affiliate's tier percent for sales
// attributed to this campaign. BonusThreshold/BonusAmount grant a one-time
// flat bonus on the conversion that pushes the participation's revenue
// across the threshold.
type CampaignRewards struct {
	CommissionPercent float64 `json:"commission_percent,omitempty"`
	BonusThreshold    float64 `json:"bonus_threshold,omitempty"`
	BonusAmount       float64 `json:"bonus_amount,omitempty"`
}

// Value implements driver.Valuer
func (r CampaignRewards) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner
func (r *CampaignRewards) Scan(value any) error {
	if value == nil {
		*r = CampaignRewards{}
		return nil
	}
	return scanJSON(value, r)
}

// CampaignMetrics aggregates across all participations of the campaign.
// Invariant: revenue equals the sum of participation revenue; both sides move
// in the same transaction.
type CampaignMetrics struct {
	Participants int64   `json:"participants"`
	Clicks       int64   `json:"clicks"`
	Conversions  int64   `json:"conversions"`
	Revenue      float64 `json:"revenue"`
}

// Campaign is a time-bounded promotional initiative with reward and
// requirement rules
type Campaign struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	TenantID         uint                 `json:"tenant_id" gorm:"index;not null"`
	Name             string               `json:"name" gorm:"type:varchar(160);not null"`
	Type             string               `json:"type" gorm:"type:varchar(32);default:standard"`
	Status           string               `json:"status" gorm:"type:varchar(16);default:draft;index"`
	StartDate        time.Time            `json:"start_date"`
	EndDate          *time.Time           `json:"end_date,omitempty"`
	RequiresApproval bool                 `json:"requires_approval" gorm:"default:false"`
	Requirements     CampaignRequirements `json:"requirements" gorm:"type:jsonb"`
	Rewards          CampaignRewards      `json:"rewards" gorm:"type:jsonb"`
	Metrics          CampaignMetrics      `json:"metrics" gorm:"embedded;embeddedPrefix:metrics_"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// IsOpenAt reports whether the campaign accepts joins at the given time:
// status must be active and t must fall within [StartDate, EndDate]
func (c *Campaign) IsOpenAt(t time.Time) bool {
	if c.Status != CampaignStatusActive {
		return false
	}
	if t.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil && t.After(*c.EndDate) {
		return false
	}
	return true
}
