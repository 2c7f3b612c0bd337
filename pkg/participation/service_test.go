package participation

import (
	"context"
	"math/rand"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/promorail/promorail/pkg/commission"
	"github.com/promorail/promorail/pkg/database"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testTrackingURL = "https://track.promorail.test"

func setupParticipationTest(t *testing.T) (*gorm.DB, *Service) {
	db := database.OpenTest(t)
	svc := NewService(db, commission.NewService(db), tier.NewService(db, nil), testTrackingURL)
	return db, svc
}

var nextUserID atomic.Uint64

func createAffiliate(t *testing.T, db *gorm.DB, tenantID uint, followers int64, niche string) *models.Affiliate {
	t.Helper()

	aff := &models.Affiliate{
		TenantID: tenantID,
		UserID:   uint(5000 + nextUserID.Add(1)),
		Status:   models.AffiliateStatusActive,
		Niche:    niche,
		Metrics:  models.AffiliateMetrics{Followers: followers},
	}
	require.NoError(t, db.Create(aff).Error)
	return aff
}

func createCampaign(t *testing.T, db *gorm.DB, tenantID uint, mutate func(*models.Campaign)) *models.Campaign {
	t.Helper()

	now := time.Now().UTC()
	end := now.AddDate(0, 1, 0)
	c := &models.Campaign{
		TenantID:  tenantID,
		Name:      "Spring Launch",
		Status:    models.CampaignStatusActive,
		StartDate: now.AddDate(0, -1, 0),
		EndDate:   &end,
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestJoin(t *testing.T) {
	db, svc := setupParticipationTest(t)
	ctx := context.Background()

	t.Run("Success - Join open campaign", func(t *testing.T) {
		c := createCampaign(t, db, 1, nil)
		aff := createAffiliate(t, db, 1, 100, "")

		p, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ParticipationStatusActive, p.Status)
		assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{10}$`), p.PromoCode)
		require.Len(t, p.PromoLinks, 1)
		assert.Equal(t, testTrackingURL+"/t/"+p.PromoCode, p.PromoLinks[0])

		var reloaded models.Campaign
		require.NoError(t, db.First(&reloaded, c.ID).Error)
		assert.Equal(t, int64(1), reloaded.Metrics.Participants)
	})

	t.Run("Success - Approval campaign starts pending", func(t *testing.T) {
		c := createCampaign(t, db, 1, func(c *models.Campaign) { c.RequiresApproval = true })
		aff := createAffiliate(t, db, 1, 100, "")

		p, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ParticipationStatusPending, p.Status)
	})

	t.Run("Failure - Second join is a duplicate", func(t *testing.T) {
		c := createCampaign(t, db, 1, nil)
		aff := createAffiliate(t, db, 1, 100, "")

		_, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.NoError(t, err)

		_, err = svc.Join(ctx, 1, c.ID, aff.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateParticipation)

		var count int64
		require.NoError(t, db.Model(&models.CampaignParticipation{}).
			Where("campaign_id = ? AND affiliate_id = ?", c.ID, aff.ID).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Failure - Draft campaign is not open", func(t *testing.T) {
		c := createCampaign(t, db, 1, func(c *models.Campaign) { c.Status = models.CampaignStatusDraft })
		aff := createAffiliate(t, db, 1, 100, "")

		_, err := svc.Join(ctx, 1, c.ID, aff.ID)
		assert.ErrorIs(t, err, ErrCampaignNotOpen)
	})

	t.Run("Failure - Active campaign outside window is not open", func(t *testing.T) {
		c := createCampaign(t, db, 1, func(c *models.Campaign) {
			end := time.Now().UTC().AddDate(0, 0, -1)
			c.StartDate = end.AddDate(0, -1, 0)
			c.EndDate = &end
		})
		aff := createAffiliate(t, db, 1, 100, "")

		_, err := svc.Join(ctx, 1, c.ID, aff.ID)
		assert.ErrorIs(t, err, ErrCampaignNotOpen)
	})

	t.Run("Failure - Follower requirement not met", func(t *testing.T) {
		c := createCampaign(t, db, 1, func(c *models.Campaign) {
			c.Requirements = models.CampaignRequirements{MinFollowers: 10000}
		})
		aff := createAffiliate(t, db, 1, 500, "")

		_, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.Error(t, err)
		assert.True(t, domain.IsState(err))
		assert.Contains(t, err.Error(), "followers")
	})

	t.Run("Failure - Niche requirement not met", func(t *testing.T) {
		c := createCampaign(t, db, 1, func(c *models.Campaign) {
			c.Requirements = models.CampaignRequirements{Niche: "fitness"}
		})
		aff := createAffiliate(t, db, 1, 100, "beauty")

		_, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.Error(t, err)
		assert.True(t, domain.IsState(err))
		assert.Contains(t, err.Error(), "niche")
	})

	t.Run("Failure - Unknown campaign", func(t *testing.T) {
		aff := createAffiliate(t, db, 1, 100, "")
		_, err := svc.Join(ctx, 1, 99999, aff.ID)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestGeneratePromoCode(t *testing.T) {
	t.Run("Success - Deterministic per input", func(t *testing.T) {
		a := GeneratePromoCode("Spring Launch", 7, 0)
		b := GeneratePromoCode("Spring Launch", 7, 0)
		assert.Equal(t, a, b)
		assert.Len(t, a, promoCodeLength)
	})

	t.Run("Success - Attempt perturbs the code", func(t *testing.T) {
		a := GeneratePromoCode("Spring Launch", 7, 0)
		b := GeneratePromoCode("Spring Launch", 7, 1)
		assert.NotEqual(t, a, b)
	})
}

func TestRecordClick(t *testing.T) {
	db, svc := setupParticipationTest(t)
	ctx := context.Background()

	c := createCampaign(t, db, 1, nil)
	aff := createAffiliate(t, db, 1, 100, "")
	p, err := svc.Join(ctx, 1, c.ID, aff.ID)
	require.NoError(t, err)

	t.Run("Success - Click moves all three counters", func(t *testing.T) {
		_, err := svc.RecordClick(ctx, p.PromoCode)
		require.NoError(t, err)
		_, err = svc.RecordClick(ctx, p.PromoCode)
		require.NoError(t, err)

		var rp models.CampaignParticipation
		require.NoError(t, db.First(&rp, p.ID).Error)
		assert.Equal(t, int64(2), rp.Metrics.Clicks)

		var rc models.Campaign
		require.NoError(t, db.First(&rc, c.ID).Error)
		assert.Equal(t, int64(2), rc.Metrics.Clicks)

		var ra models.Affiliate
		require.NoError(t, db.First(&ra, aff.ID).Error)
		assert.Equal(t, int64(2), ra.Metrics.Clicks)
	})

	t.Run("Failure - Unknown promo code", func(t *testing.T) {
		_, err := svc.RecordClick(ctx, "ZZZZZZZZZZ")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestRecordConversion(t *testing.T) {
	db, svc := setupParticipationTest(t)
	ctx := context.Background()

	t.Run("Success - Conversion carries the campaign commission", func(t *testing.T) {
		c := createCampaign(t, db, 1, func(c *models.Campaign) {
			c.Rewards = models.CampaignRewards{CommissionPercent: 10}
		})
		aff := createAffiliate(t, db, 1, 100, "")
		p, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.NoError(t, err)

		event, err := svc.RecordConversion(ctx, 1, models.RecordConversionRequest{
			ParticipationID: p.ID, Amount: 250,
		})
		require.NoError(t, err)
		assert.Equal(t, 10.0, event.CommissionPercent)
		assert.Equal(t, 25.0, event.CommissionAmount)
		assert.Equal(t, "USD", event.Currency)
		assert.Equal(t, models.ConversionStatusApproved, event.Status)

		var ra models.Affiliate
		require.NoError(t, db.First(&ra, aff.ID).Error)
		assert.Equal(t, 250.0, ra.Metrics.Revenue)
		assert.Equal(t, 25.0, ra.PendingEarnings)
		assert.Equal(t, 25.0, ra.TotalEarnings)
	})

	t.Run("Success - Conversion sums match campaign totals", func(t *testing.T) {
		c := createCampaign(t, db, 2, nil)
		affA := createAffiliate(t, db, 2, 100, "")
		affB := createAffiliate(t, db, 2, 100, "")
		pa, err := svc.Join(ctx, 2, c.ID, affA.ID)
		require.NoError(t, err)
		pb, err := svc.Join(ctx, 2, c.ID, affB.ID)
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(42))
		total := 0.0
		for i := 0; i < 20; i++ {
			pid := pa.ID
			if rng.Intn(2) == 1 {
				pid = pb.ID
			}
			amount := float64(rng.Intn(900)+100) / 10
			total += amount

			_, err := svc.RecordConversion(ctx, 2, models.RecordConversionRequest{
				ParticipationID: pid, Amount: amount,
			})
			require.NoError(t, err)
		}

		var rc models.Campaign
		require.NoError(t, db.First(&rc, c.ID).Error)
		var rpa, rpb models.CampaignParticipation
		require.NoError(t, db.First(&rpa, pa.ID).Error)
		require.NoError(t, db.First(&rpb, pb.ID).Error)

		assert.InDelta(t, total, rc.Metrics.Revenue, 0.001)
		assert.InDelta(t, rc.Metrics.Revenue, rpa.Metrics.Revenue+rpb.Metrics.Revenue, 0.001)
		assert.Equal(t, int64(20), rc.Metrics.Conversions)
		assert.Equal(t, rc.Metrics.Conversions, rpa.Metrics.Conversions+rpb.Metrics.Conversions)
	})

	t.Run("Success - Conversion can promote the affiliate", func(t *testing.T) {
		tiers := tier.NewService(db, nil)
		_, err := tiers.CreateTier(ctx, 3, models.CreateTierRequest{Name: "Bronze", CommissionPercent: 2, MinSales: 0})
		require.NoError(t, err)
		silver, err := tiers.CreateTier(ctx, 3, models.CreateTierRequest{Name: "Silver", CommissionPercent: 5, MinSales: 1000})
		require.NoError(t, err)

		c := createCampaign(t, db, 3, nil)
		aff := createAffiliate(t, db, 3, 100, "")
		p, err := svc.Join(ctx, 3, c.ID, aff.ID)
		require.NoError(t, err)

		_, err = svc.RecordConversion(ctx, 3, models.RecordConversionRequest{
			ParticipationID: p.ID, Amount: 1500,
		})
		require.NoError(t, err)

		var ra models.Affiliate
		require.NoError(t, db.First(&ra, aff.ID).Error)
		require.NotNil(t, ra.CurrentTierID)
		assert.Equal(t, silver.ID, *ra.CurrentTierID)
	})

	t.Run("Success - Bonus awarded once when revenue crosses the threshold", func(t *testing.T) {
		c := createCampaign(t, db, 4, func(c *models.Campaign) {
			c.Rewards = models.CampaignRewards{CommissionPercent: 10, BonusThreshold: 150, BonusAmount: 20}
		})
		aff := createAffiliate(t, db, 4, 100, "")
		p, err := svc.Join(ctx, 4, c.ID, aff.ID)
		require.NoError(t, err)

		before, err := svc.RecordConversion(ctx, 4, models.RecordConversionRequest{
			ParticipationID: p.ID, Amount: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 10.0, before.CommissionAmount)

		crossing, err := svc.RecordConversion(ctx, 4, models.RecordConversionRequest{
			ParticipationID: p.ID, Amount: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 30.0, crossing.CommissionAmount)

		after, err := svc.RecordConversion(ctx, 4, models.RecordConversionRequest{
			ParticipationID: p.ID, Amount: 100,
		})
		require.NoError(t, err)
		assert.Equal(t, 10.0, after.CommissionAmount)

		var ra models.Affiliate
		require.NoError(t, db.First(&ra, aff.ID).Error)
		assert.Equal(t, 50.0, ra.PendingEarnings)
	})

	t.Run("Failure - Pending participation rejects conversions", func(t *testing.T) {
		c := createCampaign(t, db, 1, func(c *models.Campaign) { c.RequiresApproval = true })
		aff := createAffiliate(t, db, 1, 100, "")
		p, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.NoError(t, err)

		_, err = svc.RecordConversion(ctx, 1, models.RecordConversionRequest{
			ParticipationID: p.ID, Amount: 100,
		})
		require.Error(t, err)
		assert.True(t, domain.IsState(err))
	})

	t.Run("Failure - Non-positive amount", func(t *testing.T) {
		_, err := svc.RecordConversion(ctx, 1, models.RecordConversionRequest{
			ParticipationID: 1, Amount: 0,
		})
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestUpdateStatus(t *testing.T) {
	db, svc := setupParticipationTest(t)
	ctx := context.Background()

	join := func(t *testing.T, requiresApproval bool) *models.CampaignParticipation {
		t.Helper()
		c := createCampaign(t, db, 1, func(c *models.Campaign) { c.RequiresApproval = requiresApproval })
		aff := createAffiliate(t, db, 1, 100, "")
		p, err := svc.Join(ctx, 1, c.ID, aff.ID)
		require.NoError(t, err)
		return p
	}

	t.Run("Success - Pending to active to completed", func(t *testing.T) {
		p := join(t, true)

		p, err := svc.UpdateStatus(ctx, 1, p.ID, models.ParticipationStatusActive)
		require.NoError(t, err)
		assert.Equal(t, models.ParticipationStatusActive, p.Status)

		p, err = svc.UpdateStatus(ctx, 1, p.ID, models.ParticipationStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.ParticipationStatusCompleted, p.Status)
		assert.NotNil(t, p.CompletedAt)
	})

	t.Run("Success - Rejection from pending and active", func(t *testing.T) {
		p := join(t, true)
		_, err := svc.UpdateStatus(ctx, 1, p.ID, models.ParticipationStatusRejected)
		require.NoError(t, err)

		p = join(t, false)
		_, err = svc.UpdateStatus(ctx, 1, p.ID, models.ParticipationStatusRejected)
		require.NoError(t, err)
	})

	t.Run("Failure - Pending cannot skip to completed", func(t *testing.T) {
		p := join(t, true)
		_, err := svc.UpdateStatus(ctx, 1, p.ID, models.ParticipationStatusCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("Failure - Terminal states accept nothing", func(t *testing.T) {
		p := join(t, false)
		_, err := svc.UpdateStatus(ctx, 1, p.ID, models.ParticipationStatusRejected)
		require.NoError(t, err)

		for _, status := range []string{
			models.ParticipationStatusPending,
			models.ParticipationStatusActive,
			models.ParticipationStatusCompleted,
		} {
			_, err := svc.UpdateStatus(ctx, 1, p.ID, status)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	})
}
