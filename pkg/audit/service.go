package audit

import (
	"context"
	"fmt"

	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// Service records admin mutations for traceability. Logging failures never
// block the mutation itself.
type Service struct {
	db *gorm.DB
}

// NewService creates a new audit service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Log writes one audit row
func (s *Service) Log(ctx context.Context, tenantID, userID uint, action, entity string, entityID uint, detail string) error {
	row := &models.AuditLog{
		TenantID: tenantID,
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// List returns the tenant's audit trail, newest first
func (s *Service) List(ctx context.Context, tenantID uint, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var out []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return out, nil
}
