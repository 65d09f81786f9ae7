// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fingrow/acf-backend/internal/config"
	"github.com/fingrow/acf-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.InsuranceProduct{},
		&models.Order{},
		&models.CommissionDistribution{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_parent ON users(parent_id)",
		"CREATE INDEX IF NOT EXISTS idx_users_inviter ON users(inviter_id)",
		"CREATE INDEX IF NOT EXISTS idx_users_run_number ON users(run_number)",
		"CREATE INDEX IF NOT EXISTS idx_users_accepting_open ON users(acf_accepting, child_count)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_insurance_products_level ON insurance_products(fingrow_level, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_insurance_products_active ON insurance_products(is_active)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_product ON orders(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Ledger indexes
		"CREATE INDEX IF NOT EXISTS idx_commission_distributions_recipient ON commission_distributions(recipient_id)",
		"CREATE INDEX IF NOT EXISTS idx_commission_distributions_order ON commission_distributions(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_commission_distributions_role ON commission_distributions(recipient_role)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedSystemRoot creates the permanent top node of the placement forest if it
// does not exist yet. The root takes run number 0 and a single child slot, so
// the first real signup lands directly under it.
func SeedSystemRoot(db *gorm.DB, cfg config.ACFConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Where("world_id = ?", cfg.SystemRootWorldID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check system root: %w", err)
	}

	if count > 0 {
		return nil
	}

	root := &models.User{
		WorldID:      cfg.SystemRootWorldID,
		Username:     "system_root",
		Status:       models.UserStatusActive,
		ParentID:     nil,
		ChildCount:   0,
		MaxChildren:  1,
		ACFAccepting: true,
		Level:        0,
		RunNumber:    0,
	}

	if err := db.Create(root).Error; err != nil {
		return fmt.Errorf("failed to create system root: %w", err)
	}

	log.Printf("System root %s created", cfg.SystemRootWorldID)
	return nil
}

// SeedSampleProducts inserts a minimal product catalog for development
// environments: one product per fingrow level, equal-sevenths split, plus one
// weighted-levels product.
func SeedSampleProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.InsuranceProduct{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}

	if count > 0 {
		return nil
	}

	products := []models.InsuranceProduct{
		{
			ProductCode:        "CMI-600",
			Title:              "Compulsory Motor Insurance",
			ShortTitle:         "Level 1 CMI",
			InsurerCompanyName: "Fingrow Partner Insurance",
			InsuranceType:      "motor",
			FingrowLevel:       1,
			PremiumTotal:       600,
			CommissionRate:     0.15,
			PolicyType:         models.PolicyEqualSevenths,
			Tags:               []string{"motor", "compulsory"},
			IsActive:           true,
			SortOrder:          1,
		},
		{
			ProductCode:        "VMI-5000",
			Title:              "Voluntary Motor Insurance",
			ShortTitle:         "Level 2 Motor",
			InsurerCompanyName: "Fingrow Partner Insurance",
			InsuranceType:      "motor",
			FingrowLevel:       2,
			PremiumTotal:       5000,
			CommissionRate:     0.15,
			PolicyType:         models.PolicyEqualSevenths,
			Tags:               []string{"motor"},
			IsActive:           true,
			SortOrder:          2,
		},
		{
			ProductCode:        "HLT-20000",
			Title:              "Health Insurance",
			ShortTitle:         "Level 3 Health",
			InsurerCompanyName: "Fingrow Partner Insurance",
			InsuranceType:      "health",
			FingrowLevel:       3,
			PremiumTotal:       20000,
			CommissionRate:     0.15,
			PolicyType:         models.PolicyWeightedLevels,
			DistributionConfig: models.JSONB{
				"self_bonus_percent": 10.0,
				"level_percents":     []interface{}{40.0, 20.0, 15.0, 10.0, 7.0, 5.0, 3.0},
			},
			Tags:      []string{"health"},
			IsActive:  true,
			SortOrder: 3,
		},
		{
			ProductCode:        "LIF-50000",
			Title:              "Life Insurance",
			ShortTitle:         "Level 4 Life",
			InsurerCompanyName: "Fingrow Partner Insurance",
			InsuranceType:      "life",
			FingrowLevel:       4,
			PremiumTotal:       50000,
			CommissionRate:     0.15,
			PolicyType:         models.PolicyEqualSevenths,
			Tags:               []string{"life"},
			IsActive:           true,
			SortOrder:          4,
		},
	}

	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].ProductCode, err)
		}
	}

	log.Printf("Seeded %d sample insurance products", len(products))
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
