package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Commission rule types
const (
	RuleTypeBonus      = "bonus"
	RuleTypeMultiplier = "multiplier"
	RuleTypePercentage = "percentage"
)

// Commission rule value types (percentage rules only)
const (
	RuleValueSet = "set"
	RuleValueAdd = "add"
)

// Commission rule statuses
const (
	RuleStatusActive   = "active"
	RuleStatusInactive = "inactive"
)

// RuleCondition qualifies which sales a rule applies to. Stackable marks a
// bonus rule that compounds with other bonus rules; by default only the
// highest-priority bonus applies per sale.
type RuleCondition struct {
	MinSaleAmount float64 `json:"min_sale_amount,omitempty"`
	Stackable     bool    `json:"stackable,omitempty"`
}

// Value implements driver.Valuer
func (c RuleCondition) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *RuleCondition) Scan(value any) error {
	if value == nil {
		*c = RuleCondition{}
		return nil
	}
	return scanJSON(value, c)
}

// CommissionRule is a supplementary bonus/multiplier applied on top of the
// base tier/product commission. Higher Priority is evaluated first among
// overlapping active rules.
type CommissionRule struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	TenantID  uint          `json:"tenant_id" gorm:"index;not null"`
	Name      string        `json:"name" gorm:"type:varchar(120);not null"`
	Type      string        `json:"type" gorm:"type:varchar(16);not null"`
	Condition RuleCondition `json:"condition" gorm:"type:jsonb"`
	Value     float64       `json:"value"`
	ValueType string        `json:"value_type" gorm:"type:varchar(8);default:set"`
	Priority  int           `json:"priority" gorm:"index"`
	Status    string        `json:"status" gorm:"type:varchar(16);default:active;index"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	EndDate   *time.Time    `json:"end_date,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// AppliesAt reports whether the rule is in effect at the given sale date.
// Null start/end dates are open-ended.
func (r *CommissionRule) AppliesAt(t time.Time) bool {
	if r.Status != RuleStatusActive {
		return false
	}
	if r.StartDate != nil && t.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && t.After(*r.EndDate) {
		return false
	}
	return true
}
