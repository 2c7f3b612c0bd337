package affiliate

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/promorail/promorail/pkg/database"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var nextEmail atomic.Uint64

func createTestUser(t *testing.T, db *gorm.DB, tenantID uint) *models.User {
	t.Helper()

	u := &models.User{
		TenantID:     tenantID,
		Email:        fmt.Sprintf("user%d@acme.test", nextEmail.Add(1)),
		PasswordHash: "irrelevant",
		Role:         models.RoleMember,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func invite(t *testing.T, svc *Service, db *gorm.DB, tenantID uint, parentID *uint) *models.Affiliate {
	t.Helper()

	u := createTestUser(t, db, tenantID)
	aff, err := svc.CreateAffiliate(context.Background(), tenantID, models.InviteAffiliateRequest{
		UserID: u.ID, ParentAffiliateID: parentID,
	})
	require.NoError(t, err)
	return aff
}

func TestCreateAffiliate(t *testing.T) {
	db := database.OpenTest(t)
	svc := NewService(db)
	ctx := context.Background()

	t.Run("Success - Starts pending with normalized phone", func(t *testing.T) {
		u := createTestUser(t, db, 1)
		aff, err := svc.CreateAffiliate(ctx, 1, models.InviteAffiliateRequest{
			UserID: u.ID, Phone: "(415) 555-2671", Niche: "fitness", Followers: 1200,
		})
		require.NoError(t, err)
		assert.Equal(t, models.AffiliateStatusPending, aff.Status)
		assert.Equal(t, "+14155552671", aff.Phone)
		assert.Equal(t, int64(1200), aff.Metrics.Followers)
	})

	t.Run("Failure - Second account for the same user", func(t *testing.T) {
		u := createTestUser(t, db, 1)
		_, err := svc.CreateAffiliate(ctx, 1, models.InviteAffiliateRequest{UserID: u.ID})
		require.NoError(t, err)

		_, err = svc.CreateAffiliate(ctx, 1, models.InviteAffiliateRequest{UserID: u.ID})
		require.Error(t, err)
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("Failure - Unknown user", func(t *testing.T) {
		_, err := svc.CreateAffiliate(ctx, 1, models.InviteAffiliateRequest{UserID: 99999})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("Failure - Invalid phone", func(t *testing.T) {
		u := createTestUser(t, db, 1)
		_, err := svc.CreateAffiliate(ctx, 1, models.InviteAffiliateRequest{UserID: u.ID, Phone: "garbage"})
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestHierarchy(t *testing.T) {
	db := database.OpenTest(t)
	svc := NewService(db)
	ctx := context.Background()

	t.Run("Success - Chain of parents", func(t *testing.T) {
		root := invite(t, svc, db, 1, nil)
		child := invite(t, svc, db, 1, &root.ID)
		grandchild := invite(t, svc, db, 1, &child.ID)
		assert.Equal(t, child.ID, *grandchild.ParentAffiliateID)
	})

	t.Run("Failure - Self parent", func(t *testing.T) {
		aff := invite(t, svc, db, 1, nil)
		err := svc.SetParent(ctx, 1, aff.ID, &aff.ID)
		assert.ErrorIs(t, err, ErrCyclicHierarchy)
	})

	t.Run("Failure - Re-parenting onto a descendant", func(t *testing.T) {
		root := invite(t, svc, db, 1, nil)
		child := invite(t, svc, db, 1, &root.ID)
		grandchild := invite(t, svc, db, 1, &child.ID)

		err := svc.SetParent(ctx, 1, root.ID, &grandchild.ID)
		assert.ErrorIs(t, err, ErrCyclicHierarchy)
	})

	t.Run("Failure - Unknown parent", func(t *testing.T) {
		aff := invite(t, svc, db, 1, nil)
		missing := uint(99999)
		err := svc.SetParent(ctx, 1, aff.ID, &missing)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("Success - Detach from parent", func(t *testing.T) {
		root := invite(t, svc, db, 1, nil)
		child := invite(t, svc, db, 1, &root.ID)

		require.NoError(t, svc.SetParent(ctx, 1, child.ID, nil))

		reloaded, err := svc.GetAffiliate(ctx, 1, child.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.ParentAffiliateID)
	})
}

func TestApproveAffiliate(t *testing.T) {
	db := database.OpenTest(t)
	svc := NewService(db)
	ctx := context.Background()

	t.Run("Success - Pending to active", func(t *testing.T) {
		aff := invite(t, svc, db, 1, nil)

		approved, err := svc.ApproveAffiliate(ctx, 1, aff.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AffiliateStatusActive, approved.Status)
		assert.NotNil(t, approved.ApprovedAt)
	})

	t.Run("Failure - Double approval", func(t *testing.T) {
		aff := invite(t, svc, db, 1, nil)
		_, err := svc.ApproveAffiliate(ctx, 1, aff.ID)
		require.NoError(t, err)

		_, err = svc.ApproveAffiliate(ctx, 1, aff.ID)
		require.Error(t, err)
		assert.True(t, domain.IsState(err))
	})
}

func TestUpdateMetricsAndStats(t *testing.T) {
	db := database.OpenTest(t)
	svc := NewService(db)
	ctx := context.Background()

	aff := invite(t, svc, db, 1, nil)

	clicks := int64(200)
	conversions := int64(10)
	revenue := 2500.0
	_, err := svc.UpdateMetrics(ctx, 1, aff.ID, models.UpdateAffiliateMetricsRequest{
		Clicks: &clicks, Conversions: &conversions, Revenue: &revenue,
	})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, 1, aff.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), stats.Clicks)
	assert.Equal(t, int64(10), stats.Conversions)
	assert.Equal(t, 5.0, stats.ConversionRate)
	assert.Equal(t, 2500.0, stats.Revenue)
}
