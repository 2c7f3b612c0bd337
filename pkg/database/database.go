package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/promorail/promorail/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client holds the database handle
type Client struct {
	DB *gorm.DB
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns sensible defaults for connection pooling
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// NewClient connects to PostgreSQL and runs schema migration
func NewClient(databaseURL string) (*Client, error) {
	return NewClientWithPool(databaseURL, DefaultPoolConfig())
}

// NewClientWithPool connects with explicit pool settings
func NewClientWithPool(databaseURL string, pool PoolConfig) (*Client, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	client := &Client{DB: db}
	if err := client.Migrate(); err != nil {
		return nil, err
	}

	log.Println("✅ Database connected")
	return client, nil
}

// Migrate applies the schema for all platform entities
func (c *Client) Migrate() error {
	err := c.DB.AutoMigrate(
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
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns the number of open connections for the pool gauge
func (c *Client) Stats() (int, error) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return 0, err
	}
	return sqlDB.Stats().OpenConnections, nil
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
