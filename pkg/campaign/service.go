package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// ErrInvalidTransition is returned for campaign status moves outside the
// monotonic lifecycle.
var ErrInvalidTransition = domain.NewStateError("invalid campaign status transition")

// allowedTransitions is the campaign lifecycle: draft→active,
// active→completed/archived, completed→archived. Archived is terminal.
var allowedTransitions = map[string][]string{
	models.CampaignStatusDraft:     {models.CampaignStatusActive},
	models.CampaignStatusActive:    {models.CampaignStatusCompleted, models.CampaignStatusArchived},
	models.CampaignStatusCompleted: {models.CampaignStatusArchived},
}

// Service manages campaigns
type Service struct {
	db *gorm.DB
}

// NewService creates a new campaign service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateCampaign creates a campaign in draft state
func (s *Service) CreateCampaign(ctx context.Context, tenantID uint, req models.CreateCampaignRequest) (*models.Campaign, error) {
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, domain.NewValidationError("campaign end date must not precede its start date")
	}
	if req.Rewards.CommissionPercent < 0 || req.Rewards.CommissionPercent > 100 {
		return nil, domain.NewValidationError("campaign commission percent must be between 0 and 100")
	}

	campaignType := req.Type
	if campaignType == "" {
		campaignType = "standard"
	}

	c := &models.Campaign{
		TenantID:         tenantID,
		Name:             req.Name,
		Type:             campaignType,
		Status:           models.CampaignStatusDraft,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		RequiresApproval: req.RequiresApproval,
		Requirements:     req.Requirements,
		Rewards:          req.Rewards,
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return c, nil
}

// GetCampaign loads one campaign scoped to the tenant
func (s *Service) GetCampaign(ctx context.Context, tenantID, campaignID uint) (*models.Campaign, error) {
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
	return &c, nil
}

// ListCampaigns returns the tenant's campaigns, optionally filtered by status
func (s *Service) ListCampaigns(ctx context.Context, tenantID uint, status string) ([]models.Campaign, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var out []models.Campaign
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a campaign through its lifecycle. Reverse moves and
// skips are rejected.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, campaignID uint, newStatus string) (*models.Campaign, error) {
	c, err := s.GetCampaign(ctx, tenantID, campaignID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(c.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ?", c.ID).
		Update("status", newStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}

	c.Status = newStatus
	return c, nil
}

// AutoCompleteExpired moves active campaigns whose end date has passed to
// completed. Run hourly from cron; re-running is harmless.
func (s *Service) AutoCompleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.CampaignStatusActive, now).
		Update("status", models.CampaignStatusCompleted)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to auto-complete campaigns: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
