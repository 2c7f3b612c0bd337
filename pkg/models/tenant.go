package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant is the isolation boundary of the platform. Every other entity
// carries a tenant id and no entity may reference rows of a different tenant.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(120);not null"`
	Slug      string         `json:"slug" gorm:"type:varchar(64);uniqueIndex;not null"`
	Plan      string         `json:"plan" gorm:"type:varchar(32);default:starter"`
	Active    bool           `json:"active" gorm:"default:true"`
	Settings  JSONMap        `json:"settings" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// User roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// User is a dashboard account scoped to one tenant
type User struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	TenantID        uint           `json:"tenant_id" gorm:"index:idx_users_tenant_email,unique;not null"`
	Email           string         `json:"email" gorm:"type:varchar(255);index:idx_users_tenant_email,unique;not null"`
	PasswordHash    string         `json:"-" gorm:"type:varchar(255);not null"`
	Name            string         `json:"name" gorm:"type:varchar(120)"`
	Role            string         `json:"role" gorm:"type:varchar(16);default:member"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
