package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/promorail/promorail/pkg/campaign"
	"github.com/promorail/promorail/pkg/commission"
	"github.com/promorail/promorail/pkg/database"
	"github.com/promorail/promorail/pkg/metrics"
	"github.com/promorail/promorail/pkg/models"
	"github.com/promorail/promorail/pkg/participation"
	"github.com/promorail/promorail/pkg/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	echo     *echo.Echo
	tenantID uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := database.OpenTest(t)

	tenant := models.Tenant{Name: "Acme", Slug: "acme-" + strings.ToLower(t.Name()), Active: true}
	require.NoError(t, db.Create(&tenant).Error)

	tiers := tier.NewService(db, nil)
	commissions := commission.NewService(db)
	participations := participation.NewService(db, commissions, tiers, "https://promorail.io")
	campaigns := campaign.NewService(db)
	m := metrics.NewWith(prometheus.NewRegistry())

	campaignHandler := NewCampaignHandler(campaigns, participations)
	participationHandler := NewParticipationHandler(participations, m)
	trackingHandler := NewTrackingHandler(participations, m, "https://app.promorail.io")

	e := echo.New()

	// stand-in for the JWT middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("tenant_id", tenant.ID)
			c.Set("user_id", uint(1))
			c.Set("user_role", models.RoleAdmin)
			return next(c)
		}
	})

	e.POST("/campaigns", campaignHandler.Create)
	e.GET("/campaigns/:id", campaignHandler.Get)
	e.PATCH("/campaigns/:id/status", campaignHandler.UpdateStatus)
	e.POST("/campaigns/:id/join", participationHandler.Join)
	e.GET("/t/:code", trackingHandler.Click)

	return &testEnv{db: db, echo: e, tenantID: tenant.ID}
}

func (env *testEnv) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createAffiliate(t *testing.T, followers int64) *models.Affiliate {
	t.Helper()

	user := models.User{TenantID: env.tenantID, Email: "aff@acme.test", PasswordHash: "irrelevant", Name: "Aff"}
	require.NoError(t, env.db.Create(&user).Error)

	aff := models.Affiliate{
		TenantID: env.tenantID,
		UserID:   user.ID,
		Status:   models.AffiliateStatusActive,
		Metrics:  models.AffiliateMetrics{Followers: followers},
	}
	require.NoError(t, env.db.Create(&aff).Error)
	return &aff
}

func TestCampaignEndpoints(t *testing.T) {
	t.Run("Success - Create campaign returns draft", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.request(http.MethodPost, "/campaigns", `{
			"name": "Summer Sale",
			"start_date": "2026-06-01T00:00:00Z",
			"rewards": {"commission_percent": 10}
		}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var created models.Campaign
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, models.CampaignStatusDraft, created.Status)
		assert.Equal(t, env.tenantID, created.TenantID)
	})

	t.Run("Failure - Missing name is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.request(http.MethodPost, "/campaigns", `{"start_date": "2026-06-01T00:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Success - Activate then fetch", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.request(http.MethodPost, "/campaigns", `{
			"name": "Launch",
			"start_date": "2026-01-01T00:00:00Z"
		}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created models.Campaign
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = env.request(http.MethodPatch, campaignPath(created.ID)+"/status", `{"status": "active"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.request(http.MethodGet, campaignPath(created.ID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		var fetched models.Campaign
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
		assert.Equal(t, models.CampaignStatusActive, fetched.Status)
	})

	t.Run("Failure - Skipping the lifecycle is a 422", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.request(http.MethodPost, "/campaigns", `{
			"name": "Launch",
			"start_date": "2026-01-01T00:00:00Z"
		}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created models.Campaign
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = env.request(http.MethodPatch, campaignPath(created.ID)+"/status", `{"status": "completed"}`)
		var body models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "state_error", body.Error)
	})
}

func TestJoinAndTrackEndpoints(t *testing.T) {
	env := newTestEnv(t)
	aff := env.createAffiliate(t, 5000)

	start := time.Now().Add(-time.Hour)
	cmp := models.Campaign{
		TenantID:  env.tenantID,
		Name:      "Always On",
		Status:    models.CampaignStatusActive,
		StartDate: start,
		Rewards:   models.CampaignRewards{CommissionPercent: 10},
	}
	require.NoError(t, env.db.Create(&cmp).Error)

	var joined models.CampaignParticipation

	t.Run("Success - Join issues a promo code", func(t *testing.T) {
		rec := env.request(http.MethodPost, campaignPath(cmp.ID)+"/join", `{"affiliate_id": `+itoa(aff.ID)+`}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &joined))
		assert.Len(t, joined.PromoCode, 10)
		assert.Equal(t, models.ParticipationStatusActive, joined.Status)
	})

	t.Run("Failure - Duplicate join is a conflict", func(t *testing.T) {
		rec := env.request(http.MethodPost, campaignPath(cmp.ID)+"/join", `{"affiliate_id": `+itoa(aff.ID)+`}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Success - Promo click counts and redirects", func(t *testing.T) {
		rec := env.request(http.MethodGet, "/t/"+joined.PromoCode, "")
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "ref="+joined.PromoCode)

		var p models.CampaignParticipation
		require.NoError(t, env.db.First(&p, joined.ID).Error)
		assert.Equal(t, int64(1), p.Metrics.Clicks)
	})

	t.Run("Failure - Unknown promo code is a 404", func(t *testing.T) {
		rec := env.request(http.MethodGet, "/t/NOPE123456", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func campaignPath(id uint) string {
	return "/campaigns/" + itoa(id)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
