package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kendall-kelly/bloomhouse-api/config"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a fresh, migrated SQLite database in a file under t.TempDir().
// The pool is capped at one connection so concurrent transactions queue instead of
// failing with SQLITE_BUSY. The file outlives any single connection, so a
// connection dropped on a cancelled context does not lose the schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenTestDB(t, 1)
}

// OpenTestDB is NewTestDB with a pool of maxConns connections. With more than one,
// transactions really overlap: the database runs in WAL mode and a writer waits
// up to five seconds for another writer's lock.
func OpenTestDB(t *testing.T, maxConns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bloomhouse_test.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig(config.Default()))
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)

	require.NoError(t, config.Migrate(db), "Failed to migrate test database")

	// Registered after TempDir, so the file is closed before the directory goes
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SeedFlower inserts an active flower with the given price and stock
func SeedFlower(t *testing.T, db *gorm.DB, name, price string, stock int) *models.Flower {
	t.Helper()

	flower := &models.Flower{
		Name:          name,
		Category:      "bouquet",
		UnitPrice:     decimal.RequireFromString(price),
		StockQuantity: stock,
		Active:        true,
	}
	require.NoError(t, db.Create(flower).Error)
	return flower
}

// SeedCustomer inserts an active customer profile
func SeedCustomer(t *testing.T, db *gorm.DB, email, name string) *models.CustomerProfile {
	t.Helper()

	profile := &models.CustomerProfile{Email: email, Name: name, Active: true}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

// Deactivate soft-deletes a flower or customer row. The active column defaults to
// true, so inactive rows have to be written with an explicit update.
func Deactivate(t *testing.T, db *gorm.DB, model any, id uint) {
	t.Helper()
	require.NoError(t, db.Model(model).Where("id = ?", id).Update("active", false).Error)
}

// StockOf reads the current stock of a flower
func StockOf(t *testing.T, db *gorm.DB, flowerID uint) int {
	t.Helper()

	var flower models.Flower
	require.NoError(t, db.First(&flower, flowerID).Error)
	return flower.StockQuantity
}
