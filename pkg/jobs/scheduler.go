package jobs

import (
	"context"
	"time"

	"github.com/promorail/promorail/pkg/campaign"
	"github.com/promorail/promorail/pkg/logger"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/tier"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler runs the recurring maintenance jobs: expiring campaigns, the
// nightly tier sweep and a daily activity digest.
type Scheduler struct {
	db        *gorm.DB
	campaigns *campaign.Service
	tiers     *tier.Service
	metrics   *metrics.Metrics
	cron      *cron.Cron
	log       logger.Logger
}

// NewScheduler creates a new scheduler. Jobs are registered but not started.
func NewScheduler(db *gorm.DB, campaigns *campaign.Service, tiers *tier.Service, m *metrics.Metrics, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}

	return &Scheduler{
		db:        db,
		campaigns: campaigns,
		tiers:     tiers,
		metrics:   m,
		cron:      cron.New(),
		log:       log,
	}
}

// Start registers the cron entries and starts the scheduler
func (s *Scheduler) Start() error {
	// Hourly: close campaigns whose end date has passed
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := s.CompleteExpiredCampaigns(ctx); err != nil {
			s.log.Error("campaign expiry sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	// Nightly: recompute every affiliate's tier from its cumulative revenue
	if _, err := s.cron.AddFunc("30 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := s.ResolveAllTiers(ctx); err != nil {
			s.log.Error("tier sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	// Daily digest
	if _, err := s.cron.AddFunc("0 6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		s.LogDailyDigest(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("job scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("job scheduler stopped")
}

// CompleteExpiredCampaigns marks every active campaign past its end date as
// completed
func (s *Scheduler) CompleteExpiredCampaigns(ctx context.Context) error {
	n, err := s.campaigns.AutoCompleteExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("completed expired campaigns", "count", n)
	}
	return nil
}

// ResolveAllTiers walks every affiliate and recomputes its commission tier.
// Failures are logged per affiliate so one bad tenant configuration does not
// stop the sweep.
func (s *Scheduler) ResolveAllTiers(ctx context.Context) error {
	var affiliates []models.Affiliate
	err := s.db.WithContext(ctx).
		Select("id", "tenant_id", "current_tier_id").
		Find(&affiliates).Error
	if err != nil {
		return err
	}

	var changed int
	for i := range affiliates {
		aff := &affiliates[i]

		resolved, err := s.tiers.ResolveTier(ctx, aff.TenantID, aff.ID)
		if err != nil {
			s.log.Warn("tier resolution failed", "affiliate_id", aff.ID, "tenant_id", aff.TenantID, "error", err)
			continue
		}

		var newID *uint
		if resolved != nil {
			newID = &resolved.ID
		}
		if !tierIDEqual(aff.CurrentTierID, newID) {
			changed++
			if s.metrics != nil {
				s.metrics.RecordTierPromotion()
			}
		}
	}

	s.log.Info("tier sweep done", "checked", len(affiliates), "changes", changed)
	return nil
}

func tierIDEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// LogDailyDigest logs a one-line platform activity summary
func (s *Scheduler) LogDailyDigest(ctx context.Context) {
	since := time.Now().Add(-24 * time.Hour)

	var conversions int64
	s.db.WithContext(ctx).
		Model(&models.ConversionEvent{}).
		Where("occurred_at >= ?", since).
		Count(&conversions)

	var revenue *float64
	s.db.WithContext(ctx).
		Model(&models.ConversionEvent{}).
		Where("occurred_at >= ?", since).
		Select("SUM(amount)").
		Scan(&revenue)

	total := 0.0
	if revenue != nil {
		total = *revenue
	}

	s.log.Info("daily digest", "conversions", conversions, "revenue", total)
}
