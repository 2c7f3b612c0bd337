package export

import (
	"context"
	"testing"
	"time"

	"github.com/promorail/promorail/pkg/database"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

func seedConversions(t *testing.T, db *gorm.DB) {
	t.Helper()

	user := &models.User{TenantID: 1, Email: "creator@acme.test", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, db.Create(user).Error)
	aff := &models.Affiliate{TenantID: 1, UserID: user.ID, Status: models.AffiliateStatusActive}
	require.NoError(t, db.Create(aff).Error)
	c := &models.Campaign{TenantID: 1, Name: "Spring Launch", Status: models.CampaignStatusActive, StartDate: time.Now().AddDate(0, -1, 0)}
	require.NoError(t, db.Create(c).Error)

	for i, amount := range []float64{100, 250, 75.5} {
		event := &models.ConversionEvent{
			TenantID: 1, ParticipationID: 1, CampaignID: c.ID, AffiliateID: aff.ID,
			Amount: amount, Currency: "USD", CommissionPercent: 10, CommissionAmount: amount / 10,
			Status:     models.ConversionStatusApproved,
			OccurredAt: time.Date(2026, 5, 1+i, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(event).Error)
	}
}

func TestExportCommissions(t *testing.T) {
	db := database.OpenTest(t)
	svc, err := NewService(db, Config{LocalPath: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	seedConversions(t, db)

	t.Run("Success - Report covers the range", func(t *testing.T) {
		res, err := svc.ExportCommissions(ctx, 1, models.ExportCommissionsRequest{
			From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.RowCount)
		assert.InDelta(t, 425.5, res.TotalSales, 0.001)
		assert.InDelta(t, 42.55, res.TotalPayable, 0.001)
		assert.False(t, res.UploadedToS3)

		f, err := excelize.OpenFile(res.FilePath)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Commissions")
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "Campaign", rows[0][2])
		assert.Equal(t, "Spring Launch", rows[1][2])
		assert.Equal(t, "creator@acme.test", rows[1][3])
	})

	t.Run("Success - Narrow range filters rows", func(t *testing.T) {
		res, err := svc.ExportCommissions(ctx, 1, models.ExportCommissionsRequest{
			From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 5, 1, 23, 59, 59, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.RowCount)
	})

	t.Run("Success - Other tenant gets an empty report", func(t *testing.T) {
		res, err := svc.ExportCommissions(ctx, 2, models.ExportCommissionsRequest{
			From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, res.RowCount)
	})

	t.Run("Failure - Inverted range", func(t *testing.T) {
		_, err := svc.ExportCommissions(ctx, 1, models.ExportCommissionsRequest{
			From: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		})
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestFormatMoney(t *testing.T) {
	printer := message.NewPrinter(language.English)

	t.Run("Success - Known currency carries its symbol", func(t *testing.T) {
		got := formatMoney(printer, "USD", 1250.5)
		assert.Contains(t, got, "$")
	})

	t.Run("Success - Unknown code falls back to a bare number", func(t *testing.T) {
		got := formatMoney(printer, "???", 12.5)
		assert.Equal(t, "12.50", got)
	})
}
