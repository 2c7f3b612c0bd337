package testdata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// GeneratorConfig configures sample data generation
type GeneratorConfig struct {
	Affiliates    int
	Campaigns     int
	Tiers         bool
	Seed          int64
	ApproveChance float64 // 0.0-1.0 probability an affiliate is pre-approved
}

// DefaultGeneratorConfig returns a small but representative dataset
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Affiliates:    25,
		Campaigns:     5,
		Tiers:         true,
		Seed:          time.Now().UnixNano(),
		ApproveChance: 0.7,
	}
}

var niches = []string{
	"fashion", "beauty", "fitness", "gaming", "travel",
	"food", "tech", "home", "parenting", "finance",
}

var campaignAdjectives = []string{
	"Summer", "Winter", "Spring", "Flash", "Holiday", "Launch", "VIP", "Weekend",
}

var campaignNouns = []string{
	"Sale", "Drop", "Push", "Blitz", "Promo", "Event", "Special",
}

// Generator seeds a tenant with realistic sample data
type Generator struct {
	db   *gorm.DB
	rand *rand.Rand
	fake *gofakeit.Faker
}

// NewGenerator creates a generator with a deterministic source when a seed is
// given
func NewGenerator(db *gorm.DB, seed int64) *Generator {
	return &Generator{
		db:   db,
		rand: rand.New(rand.NewSource(seed)),
		fake: gofakeit.New(seed),
	}
}

// SeedTenant provisions a tenant with tiers, campaigns and affiliates
func (g *Generator) SeedTenant(name string, cfg GeneratorConfig) (*models.Tenant, error) {
	tenant := models.Tenant{
		Name:   name,
		Slug:   slugify(name),
		Active: true,
	}
	if err := g.db.Create(&tenant).Error; err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	if cfg.Tiers {
		if err := g.seedTiers(tenant.ID); err != nil {
			return nil, err
		}
	}
	if err := g.seedCampaigns(tenant.ID, cfg.Campaigns); err != nil {
		return nil, err
	}
	if err := g.seedAffiliates(tenant.ID, cfg); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (g *Generator) seedTiers(tenantID uint) error {
	tiers := []models.CommissionTier{
		{TenantID: tenantID, Name: "Bronze", MinSales: 0, CommissionPercent: 3},
		{TenantID: tenantID, Name: "Silver", MinSales: 1000, CommissionPercent: 5},
		{TenantID: tenantID, Name: "Gold", MinSales: 5000, CommissionPercent: 8},
		{TenantID: tenantID, Name: "Platinum", MinSales: 20000, CommissionPercent: 12},
	}
	for i := range tiers {
		if err := g.db.Create(&tiers[i]).Error; err != nil {
			return fmt.Errorf("failed to create tier %s: %w", tiers[i].Name, err)
		}
	}
	return nil
}

func (g *Generator) seedCampaigns(tenantID uint, count int) error {
	for i := 0; i < count; i++ {
		start := time.Now().AddDate(0, 0, -g.rand.Intn(30))
		end := start.AddDate(0, g.rand.Intn(3)+1, 0)

		c := models.Campaign{
			TenantID:  tenantID,
			Name:      g.campaignName(),
			Status:    models.CampaignStatusActive,
			StartDate: start,
			EndDate:   &end,
			Requirements: models.CampaignRequirements{
				MinFollowers: int64(g.rand.Intn(5)) * 1000,
			},
			Rewards: models.CampaignRewards{
				CommissionPercent: float64(5 + g.rand.Intn(11)),
			},
		}
		if err := g.db.Create(&c).Error; err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}
	}
	return nil
}

func (g *Generator) seedAffiliates(tenantID uint, cfg GeneratorConfig) error {
	for i := 0; i < cfg.Affiliates; i++ {
		user := models.User{
			TenantID:     tenantID,
			Email:        g.fake.Email(),
			PasswordHash: "$2a$10$seeded.placeholder.hash.not.a.real.credential",
			Name:         g.fake.Name(),
			Role:         models.RoleMember,
		}
		if err := g.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		status := models.AffiliateStatusPending
		var approvedAt *time.Time
		if g.rand.Float64() < cfg.ApproveChance {
			status = models.AffiliateStatusActive
			t := time.Now().AddDate(0, 0, -g.rand.Intn(90))
			approvedAt = &t
		}

		aff := models.Affiliate{
			TenantID:   tenantID,
			UserID:     user.ID,
			Status:     status,
			Niche:      niches[g.rand.Intn(len(niches))],
			Metrics:    models.AffiliateMetrics{Followers: int64(g.rand.Intn(200)) * 1000},
			ApprovedAt: approvedAt,
			SocialMedia: models.SocialMedia{
				Instagram: "@" + g.fake.Username(),
			},
		}
		if err := g.db.Create(&aff).Error; err != nil {
			return fmt.Errorf("failed to create affiliate: %w", err)
		}
	}
	return nil
}

func (g *Generator) campaignName() string {
	return fmt.Sprintf("%s %s",
		campaignAdjectives[g.rand.Intn(len(campaignAdjectives))],
		campaignNouns[g.rand.Intn(len(campaignNouns))])
}

func slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
