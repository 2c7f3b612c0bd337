package models

import "time"

// Product is a per-tenant catalog entry with its own base commission percent.
// The product percent may take precedence over the affiliate's tier percent
// when the participation was created with the product-rate preference.
type Product struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	TenantID          uint      `json:"tenant_id" gorm:"index;not null"`
	Name              string    `json:"name" gorm:"type:varchar(160);not null"`
	SKU               string    `json:"sku" gorm:"type:varchar(64);index"`
	Price             float64   `json:"price"`
	CommissionPercent float64   `json:"commission_percent"`
	Active            bool      `json:"active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
