package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/database"
)

var testCatalog = config.CatalogConfig{
	PlaceholderImage: "/images/placeholder.png",
	DefaultPageSize:  10,
	MaxPageSize:      100,
}

// newTestDB opens a private in-memory sqlite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
