// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/readshelf/backend/internal/database"
)

// New returns a migrated in-memory sqlite database that is closed when the
// test ends. The pool holds a single connection so the in-memory database
// lives as long as the test and concurrent transactions serialize.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	return NewService(t).GetDB()
}

// NewService is New wrapped in a database.Service.
func NewService(t testing.TB) database.Service {
	t.Helper()

	svc, err := database.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), zap.NewNop(), time.Second)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := svc.GetDB().DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := svc.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = svc.Close() })
	return svc
}
