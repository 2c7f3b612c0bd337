package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/promorail/promorail/pkg/campaign"
	"github.com/promorail/promorail/pkg/database"
	"github.com/promorail/promorail/pkg/logger"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Info(msg string, args ...any)   { l.record(msg) }
func (l *recordingLogger) Error(msg string, args ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, args ...any)   { l.record(msg) }
func (l *recordingLogger) Debug(msg string, args ...any)  { l.record(msg) }
func (l *recordingLogger) With(args ...any) logger.Logger { return l }

func newTestScheduler(t *testing.T) (*Scheduler, *gorm.DB, uint, *recordingLogger) {
	t.Helper()

	db := database.OpenTest(t)

	tenant := models.Tenant{Name: "Acme", Slug: "acme-jobs-" + t.Name(), Active: true}
	require.NoError(t, db.Create(&tenant).Error)

	rec := &recordingLogger{}
	s := NewScheduler(db, campaign.NewService(db), tier.NewService(db, nil), nil, rec)
	return s, db, tenant.ID, rec
}

func TestCompleteExpiredCampaigns(t *testing.T) {
	s, db, tenantID, logs := newTestScheduler(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	expired := models.Campaign{TenantID: tenantID, Name: "Expired", Status: models.CampaignStatusActive, StartDate: past.Add(-time.Hour), EndDate: &past}
	running := models.Campaign{TenantID: tenantID, Name: "Running", Status: models.CampaignStatusActive, StartDate: past, EndDate: &future}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&running).Error)

	require.NoError(t, s.CompleteExpiredCampaigns(ctx))

	var completed models.Campaign
	require.NoError(t, db.First(&completed, expired.ID).Error)
	assert.Equal(t, models.CampaignStatusCompleted, completed.Status)

	var untouched models.Campaign
	require.NoError(t, db.First(&untouched, running.ID).Error)
	assert.Equal(t, models.CampaignStatusActive, untouched.Status)

	assert.Contains(t, logs.messages, "completed expired campaigns")
}

func TestResolveAllTiers(t *testing.T) {
	s, db, tenantID, _ := newTestScheduler(t)
	ctx := context.Background()

	bronze := models.CommissionTier{TenantID: tenantID, Name: "Bronze", MinSales: 0, CommissionPercent: 2}
	silver := models.CommissionTier{TenantID: tenantID, Name: "Silver", MinSales: 1000, CommissionPercent: 5}
	require.NoError(t, db.Create(&bronze).Error)
	require.NoError(t, db.Create(&silver).Error)

	user := models.User{TenantID: tenantID, Email: "sweep@acme.test", PasswordHash: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)

	aff := models.Affiliate{
		TenantID: tenantID,
		UserID:   user.ID,
		Status:   models.AffiliateStatusActive,
		Metrics:  models.AffiliateMetrics{Revenue: 1500},
	}
	require.NoError(t, db.Create(&aff).Error)

	require.NoError(t, s.ResolveAllTiers(ctx))

	var got models.Affiliate
	require.NoError(t, db.First(&got, aff.ID).Error)
	require.NotNil(t, got.CurrentTierID)
	assert.Equal(t, silver.ID, *got.CurrentTierID)
}
