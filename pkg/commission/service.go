package commission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// Input carries everything a commission computation depends on. SaleDate is
// passed in rather than read from the clock so previews and replays of
// historical sales produce the same result.
type Input struct {
	TierPercent       float64   `json:"tier_percent"`
	ProductPercent    float64   `json:"product_percent"`
	PreferProductRate bool      `json:"prefer_product_rate"`
	SaleAmount        float64   `json:"sale_amount"`
	SaleDate          time.Time `json:"sale_date"`
}

// Step records one rule application for the breakdown
type Step struct {
	RuleID   uint    `json:"rule_id,omitempty"`
	RuleName string  `json:"rule_name"`
	Type     string  `json:"type"`
	Percent  float64 `json:"percent"`
	Bonus    float64 `json:"bonus,omitempty"`
}

// Result is the outcome of a commission computation
type Result struct {
	Amount       float64 `json:"amount"`
	BasePercent  float64 `json:"base_percent"`
	FinalPercent float64 `json:"final_percent"`
	Bonus        float64 `json:"bonus"`
	Breakdown    []Step  `json:"breakdown"`
}

// Service evaluates commissions and manages supplementary rules
type Service struct {
	db *gorm.DB
}

// NewService creates a new commission service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Compute evaluates the commission for a sale: the base percent comes from
// the product or the affiliate's tier, then the tenant's active rules are
// applied in priority order. The result is deterministic for a given input
// and rule set.
func (s *Service) Compute(ctx context.Context, tenantID uint, in Input) (*Result, error) {
	if in.SaleAmount <= 0 {
		return nil, domain.NewValidationError("sale amount must be positive")
	}

	var rules []models.CommissionRule
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.RuleStatusActive).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load commission rules: %w", err)
	}

	return Evaluate(in, rules), nil
}

// Evaluate applies the given rules, already ordered by priority desc then id
// asc, to the sale. Rules outside their date window or below their minimum
// sale amount are skipped. Only one non-stackable bonus applies per sale.
func Evaluate(in Input, rules []models.CommissionRule) *Result {
	base := in.TierPercent
	if in.PreferProductRate {
		base = in.ProductPercent
	}

	percent := base
	bonus := 0.0
	bonusApplied := false
	var breakdown []Step

	for i := range rules {
		r := &rules[i]
		if !r.AppliesAt(in.SaleDate) {
			continue
		}
		if r.Condition.MinSaleAmount > 0 && in.SaleAmount < r.Condition.MinSaleAmount {
			continue
		}

		switch r.Type {
		case models.RuleTypePercentage:
			if r.ValueType == models.RuleValueAdd {
				percent += r.Value
			} else {
				percent = r.Value
			}
		case models.RuleTypeMultiplier:
			percent *= r.Value
		case models.RuleTypeBonus:
			if bonusApplied && !r.Condition.Stackable {
				continue
			}
			bonus += r.Value
			bonusApplied = true
		default:
			continue
		}

		breakdown = append(breakdown, Step{
			RuleID:   r.ID,
			RuleName: r.Name,
			Type:     r.Type,
			Percent:  percent,
			Bonus:    bonus,
		})
	}

	amount := roundCents(in.SaleAmount*percent/100 + bonus)

	return &Result{
		Amount:       amount,
		BasePercent:  base,
		FinalPercent: percent,
		Bonus:        bonus,
		Breakdown:    breakdown,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateRule creates a supplementary commission rule
func (s *Service) CreateRule(ctx context.Context, tenantID uint, req models.CreateCommissionRuleRequest) (*models.CommissionRule, error) {
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, domain.NewValidationError("rule end date must not precede its start date")
	}
	if req.Type == models.RuleTypeMultiplier && req.Value <= 0 {
		return nil, domain.NewValidationError("multiplier rules require a positive value")
	}

	valueType := req.ValueType
	if valueType == "" {
		valueType = models.RuleValueSet
	}

	r := &models.CommissionRule{
		TenantID:  tenantID,
		Name:      req.Name,
		Type:      req.Type,
		Condition: req.Condition,
		Value:     req.Value,
		ValueType: valueType,
		Priority:  req.Priority,
		Status:    models.RuleStatusActive,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("failed to create commission rule: %w", err)
	}
	return r, nil
}

// GetRule loads one rule scoped to the tenant
func (s *Service) GetRule(ctx context.Context, tenantID, ruleID uint) (*models.CommissionRule, error) {
	var r models.CommissionRule
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, ruleID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("commission rule")
		}
		return nil, fmt.Errorf("failed to get commission rule: %w", err)
	}
	return &r, nil
}

// ListRules returns the tenant's rules in evaluation order
func (s *Service) ListRules(ctx context.Context, tenantID uint) ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list commission rules: %w", err)
	}
	return rules, nil
}

// DeactivateRule retires a rule without deleting its history
func (s *Service) DeactivateRule(ctx context.Context, tenantID, ruleID uint) error {
	result := s.db.WithContext(ctx).
		Model(&models.CommissionRule{}).
		Where("tenant_id = ? AND id = ?", tenantID, ruleID).
		Update("status", models.RuleStatusInactive)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate commission rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("commission rule")
	}
	return nil
}

// DeleteRule removes a rule
func (s *Service) DeleteRule(ctx context.Context, tenantID, ruleID uint) error {
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, ruleID).
		Delete(&models.CommissionRule{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete commission rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("commission rule")
	}
	return nil
}
