// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"pocketledger/internal/database"
	"pocketledger/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// dbCounter gives every test its own named in-memory database so that
// parallel packages never share state through the shared cache.
var dbCounter atomic.Int64

// SetupTestDB creates an isolated in-memory SQLite database with all models migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ledgertest%d?mode=memory&cache=shared&_foreign_keys=1", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}

// CountRows returns the number of rows in table matching the optional condition.
func CountRows(t *testing.T, db *gorm.DB, table string, query string, args ...interface{}) int64 {
	t.Helper()

	q := db.Table(table)
	if query != "" {
		q = q.Where(query, args...)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
