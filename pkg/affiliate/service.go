package affiliate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/phone"
	"gorm.io/gorm"
)

var (
	// ErrCyclicHierarchy is returned when a parent assignment would make the
	// affiliate its own ancestor.
	ErrCyclicHierarchy = domain.NewValidationError("parent assignment would create a cycle in the affiliate hierarchy")

	// ErrHierarchyTooDeep is returned when the ancestor chain exceeds the
	// supported depth.
	ErrHierarchyTooDeep = domain.NewValidationError("affiliate hierarchy exceeds the maximum supported depth")
)

// maxHierarchyDepth bounds the ancestor walk so a corrupted chain cannot
// loop forever.
const maxHierarchyDepth = 32

// Stats summarizes an affiliate's performance
type Stats struct {
	Status          string  `json:"status"`
	TierName        string  `json:"tier_name,omitempty"`
	Clicks          int64   `json:"clicks"`
	Conversions     int64   `json:"conversions"`
	ConversionRate  float64 `json:"conversion_rate"`
	Revenue         float64 `json:"revenue"`
	TotalEarnings   float64 `json:"total_earnings"`
	PendingEarnings float64 `json:"pending_earnings"`
	PaidEarnings    float64 `json:"paid_earnings"`
}

// Service handles affiliate accounts, the referral hierarchy and metric
// corrections
type Service struct {
	db *gorm.DB
}

// NewService creates a new affiliate service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateAffiliate creates an affiliate account for an existing user. The
// account starts pending until approved.
func (s *Service) CreateAffiliate(ctx context.Context, tenantID uint, req models.InviteAffiliateRequest) (*models.Affiliate, error) {
	normalized, err := phone.Normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, req.UserID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.ParentAffiliateID != nil {
		if err := s.validateParent(ctx, tenantID, 0, *req.ParentAffiliateID); err != nil {
			return nil, err
		}
	}

	aff := &models.Affiliate{
		TenantID:          tenantID,
		UserID:            req.UserID,
		ParentAffiliateID: req.ParentAffiliateID,
		Status:            models.AffiliateStatusPending,
		Niche:             req.Niche,
		Phone:             normalized,
		SocialMedia:       req.SocialMedia,
		Metrics:           models.AffiliateMetrics{Followers: req.Followers},
	}

	if err := s.db.WithContext(ctx).Create(aff).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewConflictError("user already has an affiliate account")
		}
		return nil, fmt.Errorf("failed to create affiliate: %w", err)
	}
	return aff, nil
}

// GetAffiliate loads one affiliate scoped to the tenant
func (s *Service) GetAffiliate(ctx context.Context, tenantID, affiliateID uint) (*models.Affiliate, error) {
	var aff models.Affiliate
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, affiliateID).
		First(&aff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("affiliate")
		}
		return nil, fmt.Errorf("failed to get affiliate: %w", err)
	}
	return &aff, nil
}

// ListAffiliates returns the tenant's affiliates, optionally filtered by
// status
func (s *Service) ListAffiliates(ctx context.Context, tenantID uint, status string) ([]models.Affiliate, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var out []models.Affiliate
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list affiliates: %w", err)
	}
	return out, nil
}

// ApproveAffiliate activates a pending affiliate
func (s *Service) ApproveAffiliate(ctx context.Context, tenantID, affiliateID uint) (*models.Affiliate, error) {
	aff, err := s.GetAffiliate(ctx, tenantID, affiliateID)
	if err != nil {
		return nil, err
	}
	if aff.Status != models.AffiliateStatusPending {
		return nil, domain.NewStateError(fmt.Sprintf("affiliate is %s, only pending affiliates can be approved", aff.Status))
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Model(&models.Affiliate{}).
		Where("id = ?", aff.ID).
		Updates(map[string]any{"status": models.AffiliateStatusActive, "approved_at": now}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to approve affiliate: %w", err)
	}

	aff.Status = models.AffiliateStatusActive
	aff.ApprovedAt = &now
	return aff, nil
}

// SuspendAffiliate suspends an affiliate account
func (s *Service) SuspendAffiliate(ctx context.Context, tenantID, affiliateID uint) error {
	result := s.db.WithContext(ctx).Model(&models.Affiliate{}).
		Where("tenant_id = ? AND id = ?", tenantID, affiliateID).
		Update("status", models.AffiliateStatusSuspended)
	if result.Error != nil {
		return fmt.Errorf("failed to suspend affiliate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("affiliate")
	}
	return nil
}

// SetParent re-parents an affiliate in the referral hierarchy after checking
// the move does not introduce a cycle.
func (s *Service) SetParent(ctx context.Context, tenantID, affiliateID uint, parentID *uint) error {
	aff, err := s.GetAffiliate(ctx, tenantID, affiliateID)
	if err != nil {
		return err
	}

	if parentID != nil {
		if *parentID == aff.ID {
			return ErrCyclicHierarchy
		}
		if err := s.validateParent(ctx, tenantID, aff.ID, *parentID); err != nil {
			return err
		}
	}

	err = s.db.WithContext(ctx).Model(&models.Affiliate{}).
		Where("id = ?", aff.ID).
		Update("parent_affiliate_id", parentID).Error
	if err != nil {
		return fmt.Errorf("failed to set affiliate parent: %w", err)
	}
	return nil
}

// validateParent walks the ancestor chain starting at parentID. The chain
// must exist, stay within the depth bound, and never reach affiliateID.
// affiliateID 0 means a new affiliate with no descendants yet.
func (s *Service) validateParent(ctx context.Context, tenantID, affiliateID, parentID uint) error {
	current := parentID
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		if current == affiliateID {
			return ErrCyclicHierarchy
		}

		var parent models.Affiliate
		err := s.db.WithContext(ctx).
			Select("id", "parent_affiliate_id").
			Where("tenant_id = ? AND id = ?", tenantID, current).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("parent affiliate")
			}
			return fmt.Errorf("failed to walk affiliate hierarchy: %w", err)
		}

		if parent.ParentAffiliateID == nil {
			return nil
		}
		current = *parent.ParentAffiliateID
	}
	return ErrHierarchyTooDeep
}

// UpdateMetrics applies an explicit correction to the affiliate's cumulative
// metrics. Corrections are absolute values, not deltas.
func (s *Service) UpdateMetrics(ctx context.Context, tenantID, affiliateID uint, req models.UpdateAffiliateMetricsRequest) (*models.Affiliate, error) {
	aff, err := s.GetAffiliate(ctx, tenantID, affiliateID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Followers != nil {
		updates["metrics_followers"] = *req.Followers
		aff.Metrics.Followers = *req.Followers
	}
	if req.Reach != nil {
		updates["metrics_reach"] = *req.Reach
		aff.Metrics.Reach = *req.Reach
	}
	if req.Engagement != nil {
		updates["metrics_engagement"] = *req.Engagement
		aff.Metrics.Engagement = *req.Engagement
	}
	if req.Clicks != nil {
		updates["metrics_clicks"] = *req.Clicks
		aff.Metrics.Clicks = *req.Clicks
	}
	if req.Conversions != nil {
		updates["metrics_conversions"] = *req.Conversions
		aff.Metrics.Conversions = *req.Conversions
	}
	if req.Revenue != nil {
		updates["metrics_revenue"] = *req.Revenue
		aff.Metrics.Revenue = *req.Revenue
	}

	if len(updates) == 0 {
		return aff, nil
	}

	err = s.db.WithContext(ctx).Model(&models.Affiliate{}).
		Where("id = ?", aff.ID).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update affiliate metrics: %w", err)
	}
	return aff, nil
}

// GetStats summarizes the affiliate's performance
func (s *Service) GetStats(ctx context.Context, tenantID, affiliateID uint) (*Stats, error) {
	aff, err := s.GetAffiliate(ctx, tenantID, affiliateID)
	if err != nil {
		return nil, err
	}

	conversionRate := 0.0
	if aff.Metrics.Clicks > 0 {
		conversionRate = float64(aff.Metrics.Conversions) / float64(aff.Metrics.Clicks) * 100
	}

	stats := &Stats{
		Status:          aff.Status,
		Clicks:          aff.Metrics.Clicks,
		Conversions:     aff.Metrics.Conversions,
		ConversionRate:  conversionRate,
		Revenue:         aff.Metrics.Revenue,
		TotalEarnings:   aff.TotalEarnings,
		PendingEarnings: aff.PendingEarnings,
		PaidEarnings:    aff.PaidEarnings,
	}

	if aff.CurrentTierID != nil {
		var t models.CommissionTier
		if err := s.db.WithContext(ctx).First(&t, *aff.CurrentTierID).Error; err == nil {
			stats.TierName = t.Name
		}
	}

	return stats, nil
}
