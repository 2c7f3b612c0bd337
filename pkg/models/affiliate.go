package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Affiliate statuses
const (
	AffiliateStatusPending   = "pending"
	AffiliateStatusActive    = "active"
	AffiliateStatusSuspended = "suspended"
)

// AffiliateMetrics is the canonical metric key set for affiliates. Values are
// cumulative and monotonically non-decreasing except on explicit correction.
// Stored as numeric columns (embedded) so increments run as atomic row-level
// updates; serialized as a nested "metrics" object on the API surface.
type AffiliateMetrics struct {
	Followers   int64   `json:"followers"`
	Reach       int64   `json:"reach"`
	Engagement  float64 `json:"engagement"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// SocialMedia holds the affiliate's social handles
type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Value implements driver.Valuer
func (s SocialMedia) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *SocialMedia) Scan(value any) error {
	if value == nil {
		*s = SocialMedia{}
		return nil
	}
	return scanJSON(value, s)
}

// Affiliate is a partner who promotes products/campaigns and earns commission.
// CurrentTierID stays null until the first qualifying tier evaluation or a
// manual admin override. ParentAffiliateID forms a referral hierarchy and is
// validated for acyclicity at write time.
type Affiliate struct {
	ID                uint             `json:"id" gorm:"primaryKey"`
	TenantID          uint             `json:"tenant_id" gorm:"index:idx_affiliates_tenant_user,unique;not null"`
	UserID            uint             `json:"user_id" gorm:"index:idx_affiliates_tenant_user,unique;not null"`
	ParentAffiliateID *uint            `json:"parent_affiliate_id,omitempty" gorm:"index"`
	CurrentTierID     *uint            `json:"current_tier_id,omitempty" gorm:"index"`
	Status            string           `json:"status" gorm:"type:varchar(16);default:pending"`
	Niche             string           `json:"niche" gorm:"type:varchar(64);index"`
	Phone             string           `json:"phone" gorm:"type:varchar(32)"`
	StripeAccountID   string           `json:"stripe_account_id,omitempty" gorm:"type:varchar(64)"`
	SocialMedia       SocialMedia      `json:"social_media" gorm:"type:jsonb"`
	Metrics           AffiliateMetrics `json:"metrics" gorm:"embedded;embeddedPrefix:metrics_"`
	TotalEarnings     float64          `json:"total_earnings"`
	PendingEarnings   float64          `json:"pending_earnings"`
	PaidEarnings      float64          `json:"paid_earnings"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
	LastPayoutAt      *time.Time       `json:"last_payout_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	DeletedAt         gorm.DeletedAt   `json:"-" gorm:"index"`
}
