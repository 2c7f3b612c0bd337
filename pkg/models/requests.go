package models

import "time"

// CreateTierRequest creates or replaces a commission tier
type CreateTierRequest struct {
	Name              string  `json:"name" validate:"required,min=2,max=80"`
	CommissionPercent float64 `json:"commission_percent" validate:"gte=0,lte=100"`
	MinSales          float64 `json:"min_sales" validate:"gte=0"`
}

// UpdateTierRequest partially updates a commission tier
type UpdateTierRequest struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,min=2,max=80"`
	CommissionPercent *float64 `json:"commission_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinSales          *float64 `json:"min_sales,omitempty" validate:"omitempty,gte=0"`
}

// CreateProductRequest creates a catalog product
type CreateProductRequest struct {
	Name              string  `json:"name" validate:"required,min=2,max=160"`
	SKU               string  `json:"sku" validate:"omitempty,max=64"`
	Price             float64 `json:"price" validate:"gte=0"`
	CommissionPercent float64 `json:"commission_percent" validate:"gte=0,lte=100"`
}

// UpdateProductRequest partially updates a product
type UpdateProductRequest struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,min=2,max=160"`
	SKU               *string  `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price             *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	CommissionPercent *float64 `json:"commission_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Active            *bool    `json:"active,omitempty"`
}

// CreateCampaignRequest creates a campaign in draft state
type CreateCampaignRequest struct {
	Name             string               `json:"name" validate:"required,min=2,max=160"`
	Type             string               `json:"type" validate:"omitempty,max=32"`
	StartDate        time.Time            `json:"start_date" validate:"required"`
	EndDate          *time.Time           `json:"end_date,omitempty"`
	RequiresApproval bool                 `json:"requires_approval"`
	Requirements     CampaignRequirements `json:"requirements"`
	Rewards          CampaignRewards      `json:"rewards"`
}

// UpdateCampaignStatusRequest moves a campaign through its lifecycle
type UpdateCampaignStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active completed archived"`
}

// InviteAffiliateRequest creates an affiliate for an existing user
type InviteAffiliateRequest struct {
	UserID            uint        `json:"user_id" validate:"required"`
	ParentAffiliateID *uint       `json:"parent_affiliate_id,omitempty"`
	Niche             string      `json:"niche" validate:"omitempty,max=64"`
	Phone             string      `json:"phone" validate:"omitempty,max=32"`
	SocialMedia       SocialMedia `json:"social_media"`
	Followers         int64       `json:"followers" validate:"gte=0"`
}

// UpdateAffiliateMetricsRequest applies an explicit metrics correction
type UpdateAffiliateMetricsRequest struct {
	Followers   *int64   `json:"followers,omitempty" validate:"omitempty,gte=0"`
	Reach       *int64   `json:"reach,omitempty" validate:"omitempty,gte=0"`
	Engagement  *float64 `json:"engagement,omitempty" validate:"omitempty,gte=0"`
	Clicks      *int64   `json:"clicks,omitempty" validate:"omitempty,gte=0"`
	Conversions *int64   `json:"conversions,omitempty" validate:"omitempty,gte=0"`
	Revenue     *float64 `json:"revenue,omitempty" validate:"omitempty,gte=0"`
}

// JoinCampaignRequest opts an affiliate into a campaign
type JoinCampaignRequest struct {
	AffiliateID uint `json:"affiliate_id" validate:"required"`
}

// UpdateParticipationStatusRequest drives the participation state machine
type UpdateParticipationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active completed rejected"`
}

// RecordConversionRequest reports an attributed sale
type RecordConversionRequest struct {
	ParticipationID uint    `json:"participation_id" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Currency        string  `json:"currency" validate:"omitempty,len=3"`
}

// CreateCommissionRuleRequest creates a supplementary commission rule
type CreateCommissionRuleRequest struct {
	Name      string        `json:"name" validate:"required,min=2,max=120"`
	Type      string        `json:"type" validate:"required,oneof=bonus multiplier percentage"`
	Condition RuleCondition `json:"condition"`
	Value     float64       `json:"value" validate:"gte=0"`
	ValueType string        `json:"value_type" validate:"omitempty,oneof=set add"`
	Priority  int           `json:"priority"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
}

// CommissionPreviewRequest computes the commission for a hypothetical sale
type CommissionPreviewRequest struct {
	TierPercent       float64   `json:"tier_percent" validate:"gte=0,lte=100"`
	ProductPercent    float64   `json:"product_percent" validate:"gte=0,lte=100"`
	PreferProductRate bool      `json:"prefer_product_rate"`
	SaleAmount        float64   `json:"sale_amount" validate:"required,gt=0"`
	SaleDate          time.Time `json:"sale_date" validate:"required"`
}

// CreatePayoutRequest disburses pending earnings to an affiliate
type CreatePayoutRequest struct {
	AffiliateID uint    `json:"affiliate_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

// ExportCommissionsRequest builds an XLSX commission report
type ExportCommissionsRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtefield=From"`
}
