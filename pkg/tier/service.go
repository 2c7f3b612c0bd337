package tier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/promorail/promorail/pkg/cache"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrAmbiguousThresholds is returned when two tiers of a tenant share the
	// same min_sales value. Resolution is undefined; the configuration must be
	// fixed rather than picked from silently.
	ErrAmbiguousThresholds = domain.NewConfigurationError("two commission tiers share the same minimum sales threshold")
)

const tierCacheTTL = 5 * time.Minute

// Service handles commission tier configuration and resolution
type Service struct {
	db    *gorm.DB
	cache *cache.Client
}

// NewService creates a new tier service. The cache client is optional.
func NewService(db *gorm.DB, cache *cache.Client) *Service {
	return &Service{db: db, cache: cache}
}

// CreateTier creates a commission tier after validating the threshold is not
// already taken by another tier of the tenant
func (s *Service) CreateTier(ctx context.Context, tenantID uint, req models.CreateTierRequest) (*models.CommissionTier, error) {
	t := &models.CommissionTier{
		TenantID:          tenantID,
		Name:              req.Name,
		CommissionPercent: req.CommissionPercent,
		MinSales:          req.MinSales,
	}

	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAmbiguousThresholds
		}
		return nil, fmt.Errorf("failed to create tier: %w", err)
	}

	s.invalidateCache(ctx, tenantID)
	return t, nil
}

// UpdateTier partially updates a tier; threshold changes re-validate uniqueness
func (s *Service) UpdateTier(ctx context.Context, tenantID, tierID uint, req models.UpdateTierRequest) (*models.CommissionTier, error) {
	t, err := s.GetTier(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.CommissionPercent != nil {
		t.CommissionPercent = *req.CommissionPercent
	}
	if req.MinSales != nil {
		t.MinSales = *req.MinSales
	}

	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAmbiguousThresholds
		}
		return nil, fmt.Errorf("failed to update tier: %w", err)
	}

	s.invalidateCache(ctx, tenantID)
	return t, nil
}

// GetTier loads one tier scoped to the tenant
func (s *Service) GetTier(ctx context.Context, tenantID, tierID uint) (*models.CommissionTier, error) {
	var t models.CommissionTier
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, tierID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("commission tier")
		}
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	return &t, nil
}

// ListTiers returns the tenant's tiers ordered by min_sales ascending,
// served from cache when possible
func (s *Service) ListTiers(ctx context.Context, tenantID uint) ([]models.CommissionTier, error) {
	if tiers, ok := s.cachedTiers(ctx, tenantID); ok {
		return tiers, nil
	}

	var tiers []models.CommissionTier
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("min_sales ASC, id ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}

	s.storeTiers(ctx, tenantID, tiers)
	return tiers, nil
}

// DeleteTier removes a tier. Affiliates currently on it become tier-less on
// their next resolution.
func (s *Service) DeleteTier(ctx context.Context, tenantID, tierID uint) error {
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, tierID).
		Delete(&models.CommissionTier{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete tier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("commission tier")
	}

	s.invalidateCache(ctx, tenantID)
	return nil
}

// ResolveTier determines the tier that should currently apply to the
// affiliate: the tier with the greatest min_sales not exceeding the
// affiliate's cumulative revenue. No qualifying tier leaves the affiliate
// tier-less. The assignment is persisted only when it changed, which makes
// repeated resolution with unchanged inputs a no-op.
func (s *Service) ResolveTier(ctx context.Context, tenantID, affiliateID uint) (*models.CommissionTier, error) {
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

	tiers, err := s.ListTiers(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	best, err := pickTier(tiers, aff.Metrics.Revenue)
	if err != nil {
		return nil, err
	}

	var newTierID *uint
	if best != nil {
		newTierID = &best.ID
	}

	if !tierIDEqual(aff.CurrentTierID, newTierID) {
		err := s.db.WithContext(ctx).
			Model(&models.Affiliate{}).
			Where("tenant_id = ? AND id = ?", tenantID, affiliateID).
			Update("current_tier_id", newTierID).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update affiliate tier: %w", err)
		}
	}

	return best, nil
}

// pickTier selects the tier with the greatest threshold not exceeding the
// sales total. Duplicate thresholds are a configuration error: report it
// instead of picking one silently.
func pickTier(tiers []models.CommissionTier, salesTotal float64) (*models.CommissionTier, error) {
	seen := make(map[float64]bool, len(tiers))
	var best *models.CommissionTier

	for i := range tiers {
		t := &tiers[i]
		if seen[t.MinSales] {
			return nil, ErrAmbiguousThresholds
		}
		seen[t.MinSales] = true

		if t.MinSales <= salesTotal && (best == nil || t.MinSales > best.MinSales) {
			best = t
		}
	}

	return best, nil
}

func tierIDEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// cache helpers

func tierCacheKey(tenantID uint) string {
	return fmt.Sprintf("tiers:%d", tenantID)
}

func (s *Service) cachedTiers(ctx context.Context, tenantID uint) ([]models.CommissionTier, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, tierCacheKey(tenantID))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Cache trouble is not fatal; fall through to the database.
			return nil, false
		}
		return nil, false
	}

	var tiers []models.CommissionTier
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
		return nil, false
	}
	return tiers, true
}

func (s *Service) storeTiers(ctx context.Context, tenantID uint, tiers []models.CommissionTier) {
	if s.cache == nil {
		return
	}
	if raw, err := json.Marshal(tiers); err == nil {
		_ = s.cache.Set(ctx, tierCacheKey(tenantID), string(raw), tierCacheTTL)
	}
}

func (s *Service) invalidateCache(ctx context.Context, tenantID uint) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, tierCacheKey(tenantID))
}
