package models

import "time"

// CommissionTier is a commission-rate bracket assigned by cumulative sales
// volume. Tiers are totally ordered by MinSales ascending; the unique index on
// (tenant_id, min_sales) backs the rule that duplicate thresholds are a
// configuration error, never resolved silently.
type CommissionTier struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	TenantID          uint      `json:"tenant_id" gorm:"index:idx_tiers_tenant_min_sales,unique;not null"`
	Name              string    `json:"name" gorm:"type:varchar(80);not null"`
	CommissionPercent float64   `json:"commission_percent"`
	MinSales          float64   `json:"min_sales" gorm:"index:idx_tiers_tenant_min_sales,unique"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsDefault reports whether this tier applies from zero sales
func (t *CommissionTier) IsDefault() bool {
	return t.MinSales == 0
}
