// internal/database/connection.go
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/models"
)

var (
	DB *gorm.DB
	mu sync.Mutex
)

// ConnectionError reports that the store could not be reached or that the
// connection settings are incomplete.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("database connection: %s: %v", e.Reason, e.Err)
	}
	return "database connection: " + e.Reason
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Initialize opens the process-wide connection pool, or returns the one
// already opened. Failures are returned as *ConnectionError and never retried.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	mu.Lock()
	defer mu.Unlock()

	if DB != nil {
		return DB, nil
	}

	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, &ConnectionError{Reason: "missing settings " + strings.Join(missing, ", ")}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, &ConnectionError{Reason: "open", Err: err}
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &ConnectionError{Reason: "underlying sql.DB", Err: err}
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, &ConnectionError{Reason: "ping", Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established successfully")

	DB = db
	return DB, nil
}

// GormConfig builds the shared gorm settings. Relations are declared on the
// models for preloading only; foreign keys are created explicitly.
func GormConfig(logLevel string) *gorm.Config {
	return &gorm.Config{
		Logger:                                   logger.Default.LogMode(parseLogLevel(logLevel)),
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	mu.Lock()
	defer mu.Unlock()

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}

	if DB == db {
		DB = nil
	}
}

// Ping checks that the store answers within the context deadline.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_listing ON products(is_deleted, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_trash ON products(is_deleted, deleted_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_listing ON products(category, is_deleted)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_id, created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
	}

	if db.Dialector.Name() == "postgres" {
		indexes = append(indexes,
			"CREATE INDEX IF NOT EXISTS idx_products_title_lower ON products(LOWER(title))",
			`DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_order_items_order') THEN
					ALTER TABLE order_items ADD CONSTRAINT fk_order_items_order
						FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;
				END IF;
			END $$`,
		)
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("statement", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedAdminUsers makes sure a shadow user with the admin role exists for each
// configured identity-provider subject.
func SeedAdminUsers(db *gorm.DB, subjects []string) error {
	if len(subjects) == 0 {
		return nil
	}

	logrus.WithField("count", len(subjects)).Info("Seeding admin users...")

	for _, subject := range subjects {
		admin := &models.User{Subject: subject, Role: models.UserRoleAdmin}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"role": models.UserRoleAdmin}),
		}).Create(admin).Error
		if err != nil {
			return fmt.Errorf("failed to seed admin %s: %w", subject, err)
		}
	}

	logrus.Info("Admin seeding completed")
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
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit().Error
}
