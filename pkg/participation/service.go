package participation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promorail/promorail/pkg/commission"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/tier"
	"gorm.io/gorm"
)

var (
	// ErrCampaignNotOpen is returned when the campaign is not active or the
	// join falls outside its [start, end] window.
	ErrCampaignNotOpen = domain.NewStateError("campaign is not open for joining")

	// ErrDuplicateParticipation is returned when the affiliate already joined
	// the campaign. The unique index serializes concurrent joins; the loser
	// gets this error, never a second row.
	ErrDuplicateParticipation = domain.NewConflictError("affiliate already joined this campaign")

	// ErrInvalidTransition is returned for any status move outside the state
	// machine.
	ErrInvalidTransition = domain.NewStateError("invalid participation status transition")
)

const (
	promoCodeLength  = 10
	maxPromoAttempts = 5
)

// allowedTransitions is the participation state machine. completed and
// rejected are terminal.
var allowedTransitions = map[string][]string{
	models.ParticipationStatusPending: {models.ParticipationStatusActive, models.ParticipationStatusRejected},
	models.ParticipationStatusActive:  {models.ParticipationStatusCompleted, models.ParticipationStatusRejected},
}

// Service manages campaign participations, click/conversion tracking and the
// participation state machine
type Service struct {
	db              *gorm.DB
	commissions     *commission.Service
	tiers           *tier.Service
	trackingBaseURL string
}

// NewService creates a new participation service
func NewService(db *gorm.DB, commissions *commission.Service, tiers *tier.Service, trackingBaseURL string) *Service {
	return &Service{
		db:              db,
		commissions:     commissions,
		tiers:           tiers,
		trackingBaseURL: strings.TrimRight(trackingBaseURL, "/"),
	}
}

// Join opts an affiliate into a campaign. The campaign must be open (active
// status and inside its date window), the affiliate must meet the campaign's
// requirements, and each affiliate may join a campaign at most once.
func (s *Service) Join(ctx context.Context, tenantID, campaignID, affiliateID uint) (*models.CampaignParticipation, error) {
	var c models.Campaign
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, campaignID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("campaign")
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	if !c.IsOpenAt(time.Now()) {
		return nil, ErrCampaignNotOpen
	}

	var aff models.Affiliate
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, affiliateID).
		First(&aff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("affiliate")
		}
		return nil, fmt.Errorf("failed to get affiliate: %w", err)
	}

	if err := checkRequirements(&c, &aff); err != nil {
		return nil, err
	}

	status := models.ParticipationStatusActive
	if c.RequiresApproval {
		status = models.ParticipationStatusPending
	}

	for attempt := 0; attempt < maxPromoAttempts; attempt++ {
		code := GeneratePromoCode(c.Name, affiliateID, attempt)

		p := &models.CampaignParticipation{
			TenantID:    tenantID,
			CampaignID:  campaignID,
			AffiliateID: affiliateID,
			Status:      status,
			PromoCode:   code,
			PromoLinks:  models.StringSlice{s.promoLink(code)},
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
			return tx.Model(&models.Campaign{}).
				Where("id = ?", campaignID).
				Update("metrics_participants", gorm.Expr("metrics_participants + 1")).Error
		})
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create participation: %w", err)
		}

		// Duplicate key: either the affiliate already joined, or the promo
		// code collided with another participation. Re-check which.
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.CampaignParticipation{}).
			Where("campaign_id = ? AND affiliate_id = ?", campaignID, affiliateID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check participation: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateParticipation
		}
	}

	return nil, fmt.Errorf("failed to generate a unique promo code after %d attempts", maxPromoAttempts)
}

func checkRequirements(c *models.Campaign, aff *models.Affiliate) error {
	if c.Requirements.MinFollowers > 0 && aff.Metrics.Followers < c.Requirements.MinFollowers {
		return domain.NewStateError(fmt.Sprintf(
			"campaign requires at least %d followers, affiliate has %d",
			c.Requirements.MinFollowers, aff.Metrics.Followers))
	}
	if c.Requirements.Niche != "" && !strings.EqualFold(c.Requirements.Niche, aff.Niche) {
		return domain.NewStateError(fmt.Sprintf(
			"campaign requires the %q niche, affiliate is in %q",
			c.Requirements.Niche, aff.Niche))
	}
	return nil
}

// GeneratePromoCode derives a fixed-length upper-hex code from the campaign
// name and affiliate id. The attempt counter perturbs the hash when a
// collision with an existing code is detected.
func GeneratePromoCode(campaignName string, affiliateID uint, attempt int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", campaignName, affiliateID, attempt)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:promoCodeLength]
}

func (s *Service) promoLink(code string) string {
	return fmt.Sprintf("%s/t/%s", s.trackingBaseURL, code)
}

// GetParticipation loads one participation scoped to the tenant
func (s *Service) GetParticipation(ctx context.Context, tenantID, participationID uint) (*models.CampaignParticipation, error) {
	var p models.CampaignParticipation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, participationID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("participation")
		}
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return &p, nil
}

// GetByPromoCode resolves a promo code to its participation. Used by the
// public tracking endpoints, which are not tenant-scoped.
func (s *Service) GetByPromoCode(ctx context.Context, promoCode string) (*models.CampaignParticipation, error) {
	var p models.CampaignParticipation
	err := s.db.WithContext(ctx).
		Where("promo_code = ?", strings.ToUpper(promoCode)).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("participation")
		}
		return nil, fmt.Errorf("failed to get participation by promo code: %w", err)
	}
	return &p, nil
}

// ListByCampaign returns all participations of a campaign
func (s *Service) ListByCampaign(ctx context.Context, tenantID, campaignID uint) ([]models.CampaignParticipation, error) {
	var out []models.CampaignParticipation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND campaign_id = ?", tenantID, campaignID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	return out, nil
}

// ListByAffiliate returns all participations of an affiliate
func (s *Service) ListByAffiliate(ctx context.Context, tenantID, affiliateID uint) ([]models.CampaignParticipation, error) {
	var out []models.CampaignParticipation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND affiliate_id = ?", tenantID, affiliateID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	return out, nil
}

// RecordClick attributes one click on a promo link: participation, campaign
// and affiliate click counters move together in one transaction.
func (s *Service) RecordClick(ctx context.Context, promoCode string) (*models.CampaignParticipation, error) {
	p, err := s.GetByPromoCode(ctx, promoCode)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CampaignParticipation{}).
			Where("id = ?", p.ID).
			Update("metrics_clicks", gorm.Expr("metrics_clicks + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Campaign{}).
			Where("id = ?", p.CampaignID).
			Update("metrics_clicks", gorm.Expr("metrics_clicks + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.Affiliate{}).
			Where("id = ?", p.AffiliateID).
			Update("metrics_clicks", gorm.Expr("metrics_clicks + 1")).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	p.Metrics.Clicks++
	return p, nil
}

// RecordConversion records an attributed sale: the commission is computed
// from the affiliate's current tier and the campaign rewards (plus the
// campaign's one-time bonus when this sale pushes the participation across
// its bonus threshold), then the participation, campaign and affiliate
// totals all move by the same amounts in one transaction together with the
// inserted conversion event. Tier re-resolution runs after commit, best
// effort.
func (s *Service) RecordConversion(ctx context.Context, tenantID uint, req models.RecordConversionRequest) (*models.ConversionEvent, error) {
	if req.Amount <= 0 {
		return nil, domain.NewValidationError("conversion amount must be positive")
	}

	p, err := s.GetParticipation(ctx, tenantID, req.ParticipationID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ParticipationStatusPending || p.Status == models.ParticipationStatusRejected {
		return nil, domain.NewStateError(fmt.Sprintf("participation is %s, conversions are not accepted", p.Status))
	}

	var c models.Campaign
	if err := s.db.WithContext(ctx).First(&c, p.CampaignID).Error; err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	var aff models.Affiliate
	if err := s.db.WithContext(ctx).First(&aff, p.AffiliateID).Error; err != nil {
		return nil, fmt.Errorf("failed to get affiliate: %w", err)
	}

	tierPercent := 0.0
	if aff.CurrentTierID != nil {
		t, err := s.tiers.GetTier(ctx, tenantID, *aff.CurrentTierID)
		if err == nil {
			tierPercent = t.CommissionPercent
		} else if !domain.IsNotFound(err) {
			return nil, err
		}
	}

	now := time.Now().UTC()
	result, err := s.commissions.Compute(ctx, tenantID, commission.Input{
		TierPercent:       tierPercent,
		ProductPercent:    c.Rewards.CommissionPercent,
		PreferProductRate: c.Rewards.CommissionPercent > 0,
		SaleAmount:        req.Amount,
		SaleDate:          now,
	})
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	commissionAmount := result.Amount + bonusFor(&c.Rewards, p.Metrics.Revenue, req.Amount)

	event := &models.ConversionEvent{
		TenantID:          tenantID,
		ParticipationID:   p.ID,
		CampaignID:        p.CampaignID,
		AffiliateID:       p.AffiliateID,
		Amount:            req.Amount,
		Currency:          strings.ToUpper(currency),
		CommissionPercent: result.FinalPercent,
		CommissionAmount:  commissionAmount,
		Status:            models.ConversionStatusApproved,
		OccurredAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CampaignParticipation{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"metrics_conversions": gorm.Expr("metrics_conversions + 1"),
				"metrics_revenue":     gorm.Expr("metrics_revenue + ?", req.Amount),
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Campaign{}).
			Where("id = ?", p.CampaignID).
			Updates(map[string]any{
				"metrics_conversions": gorm.Expr("metrics_conversions + 1"),
				"metrics_revenue":     gorm.Expr("metrics_revenue + ?", req.Amount),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Affiliate{}).
			Where("id = ?", p.AffiliateID).
			Updates(map[string]any{
				"metrics_conversions": gorm.Expr("metrics_conversions + 1"),
				"metrics_revenue":     gorm.Expr("metrics_revenue + ?", req.Amount),
				"pending_earnings":    gorm.Expr("pending_earnings + ?", commissionAmount),
				"total_earnings":      gorm.Expr("total_earnings + ?", commissionAmount),
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record conversion: %w", err)
	}

	// Revenue moved, so the affiliate may have crossed a tier threshold.
	// Resolution is idempotent; a failure here never rolls back the sale.
	_, _ = s.tiers.ResolveTier(ctx, tenantID, p.AffiliateID)

	return event, nil
}

// bonusFor returns the campaign's flat bonus when the sale pushes the
// participation's revenue across BonusThreshold. The bonus is paid exactly
// once, on the crossing conversion.
func bonusFor(r *models.CampaignRewards, revenueSoFar, saleAmount float64) float64 {
	if r.BonusThreshold <= 0 || r.BonusAmount <= 0 {
		return 0
	}
	if revenueSoFar >= r.BonusThreshold {
		return 0
	}
	if revenueSoFar+saleAmount < r.BonusThreshold {
		return 0
	}
	return r.BonusAmount
}

// UpdateStatus drives the participation state machine. Transitions outside
// the table are rejected; completed stamps CompletedAt.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, participationID uint, newStatus string) (*models.CampaignParticipation, error) {
	p, err := s.GetParticipation(ctx, tenantID, participationID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(p.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	updates := map[string]any{"status": newStatus}
	if newStatus == models.ParticipationStatusCompleted {
		now := time.Now().UTC()
		updates["completed_at"] = now
		p.CompletedAt = &now
	}

	if err := s.db.WithContext(ctx).Model(&models.CampaignParticipation{}).
		Where("id = ?", p.ID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update participation status: %w", err)
	}

	p.Status = newStatus
	return p, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
