package payout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/transfer"
	"gorm.io/gorm"
)

// Transferer abstracts the Stripe transfer call so tests can stub it
type Transferer interface {
	New(params *stripe.TransferParams) (*stripe.Transfer, error)
}

// EmailSender abstracts payout notifications
type EmailSender interface {
	SendPayoutNotice(toEmail, toName string, amount float64, currency string) error
}

// Config holds payout configuration
type Config struct {
	StripeSecretKey string
	Currency        string
	MinimumAmount   float64
}

// Service disburses pending affiliate earnings via Stripe transfers
type Service struct {
	db        *gorm.DB
	config    *Config
	transfers Transferer
	email     EmailSender
}

type stripeTransferer struct{}

func (stripeTransferer) New(params *stripe.TransferParams) (*stripe.Transfer, error) {
	return transfer.New(params)
}

// NewService creates a new payout service
func NewService(db *gorm.DB, config *Config) *Service {
	stripe.Key = config.StripeSecretKey

	return &Service{
		db:        db,
		config:    config,
		transfers: stripeTransferer{},
	}
}

// SetTransferer overrides the Stripe transfer client
func (s *Service) SetTransferer(t Transferer) {
	s.transfers = t
}

// SetEmailSender sets the email sender for payout notifications
func (s *Service) SetEmailSender(e EmailSender) {
	s.email = e
}

// CreatePayout disburses part of an affiliate's pending earnings. The Stripe
// transfer runs with a fresh idempotency key stored on the payout row; on
// transfer failure the row is marked failed and the earnings stay pending.
// On success the oldest approved conversions covered by the amount are
// marked paid.
func (s *Service) CreatePayout(ctx context.Context, tenantID uint, req models.CreatePayoutRequest) (*models.Payout, error) {
	if req.Amount < s.config.MinimumAmount {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"payout amount is below the minimum of %.2f %s", s.config.MinimumAmount, s.config.Currency))
	}

	var aff models.Affiliate
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, req.AffiliateID).
		First(&aff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("affiliate")
		}
		return nil, fmt.Errorf("failed to get affiliate: %w", err)
	}

	if aff.PendingEarnings < req.Amount {
		return nil, domain.NewStateError(fmt.Sprintf(
			"insufficient pending earnings: requested %.2f, available %.2f", req.Amount, aff.PendingEarnings))
	}
	if aff.StripeAccountID == "" {
		return nil, domain.NewStateError("affiliate has no connected Stripe account")
	}

	p := &models.Payout{
		TenantID:       tenantID,
		AffiliateID:    aff.ID,
		Amount:         req.Amount,
		Currency:       s.config.Currency,
		Status:         models.PayoutStatusPending,
		IdempotencyKey: uuid.NewString(),
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(math.Round(req.Amount * 100))),
		Currency:    stripe.String(s.config.Currency),
		Destination: stripe.String(aff.StripeAccountID),
	}
	params.SetIdempotencyKey(p.IdempotencyKey)
	params.AddMetadata("tenant_id", fmt.Sprintf("%d", tenantID))
	params.AddMetadata("affiliate_id", fmt.Sprintf("%d", aff.ID))
	params.AddMetadata("payout_id", fmt.Sprintf("%d", p.ID))

	tr, err := s.transfers.New(params)
	if err != nil {
		s.markFailed(ctx, p, err)
		return nil, fmt.Errorf("stripe transfer failed: %w", err)
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payout{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"status":             models.PayoutStatusPaid,
				"stripe_transfer_id": tr.ID,
				"paid_at":            now,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Affiliate{}).
			Where("id = ?", aff.ID).
			Updates(map[string]any{
				"pending_earnings": gorm.Expr("pending_earnings - ?", req.Amount),
				"paid_earnings":    gorm.Expr("paid_earnings + ?", req.Amount),
				"last_payout_at":   now,
			}).Error; err != nil {
			return err
		}
		return settleConversions(tx, aff.ID, req.Amount, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finalize payout: %w", err)
	}

	p.Status = models.PayoutStatusPaid
	p.StripeTransferID = tr.ID
	p.PaidAt = &now

	s.notify(ctx, tenantID, &aff, p)

	return p, nil
}

// settleConversions marks the affiliate's oldest approved conversions as
// paid, stopping before the cumulative commission would exceed the disbursed
// amount. A conversion is never split across payouts; the remainder stays
// approved for the next payout. Half a cent of float tolerance.
func settleConversions(tx *gorm.DB, affiliateID uint, amount float64, now time.Time) error {
	var approved []models.ConversionEvent
	err := tx.
		Where("affiliate_id = ? AND status = ?", affiliateID, models.ConversionStatusApproved).
		Order("occurred_at ASC, id ASC").
		Find(&approved).Error
	if err != nil {
		return err
	}

	var ids []uint
	covered := 0.0
	for _, ev := range approved {
		if covered+ev.CommissionAmount > amount+0.005 {
			break
		}
		covered += ev.CommissionAmount
		ids = append(ids, ev.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	return tx.Model(&models.ConversionEvent{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":  models.ConversionStatusPaid,
			"paid_at": now,
		}).Error
}

func (s *Service) markFailed(ctx context.Context, p *models.Payout, cause error) {
	_ = s.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"status":         models.PayoutStatusFailed,
			"failure_reason": cause.Error(),
		}).Error
	p.Status = models.PayoutStatusFailed
	p.FailureReason = cause.Error()
}

func (s *Service) notify(ctx context.Context, tenantID uint, aff *models.Affiliate, p *models.Payout) {
	if s.email == nil {
		return
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, aff.UserID).
		First(&user).Error
	if err != nil {
		return
	}
	_ = s.email.SendPayoutNotice(user.Email, user.Name, p.Amount, p.Currency)
}

// GetPayout loads one payout scoped to the tenant
func (s *Service) GetPayout(ctx context.Context, tenantID, payoutID uint) (*models.Payout, error) {
	var p models.Payout
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, payoutID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("payout")
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	return &p, nil
}

// ListPayouts returns the tenant's payouts, optionally for one affiliate
func (s *Service) ListPayouts(ctx context.Context, tenantID uint, affiliateID uint) ([]models.Payout, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if affiliateID != 0 {
		q = q.Where("affiliate_id = ?", affiliateID)
	}

	var out []models.Payout
	if err := q.Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return out, nil
}
