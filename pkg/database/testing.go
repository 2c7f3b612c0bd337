package database

import (
	"testing"

	"github.com/promorail/promorail/pkg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenTest opens an isolated in-memory SQLite database with the full schema
// migrated. Used by service tests; production always runs PostgreSQL.
func OpenTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_fk=1"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Product{},
		&models.CommissionTier{},
		&models.Affiliate{},
		&models.Campaign{},
		&models.CampaignParticipation{},
		&models.CommissionRule{},
		&models.ConversionEvent{},
		&models.Payout{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}
