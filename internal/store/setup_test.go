package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/familycart/internal/database"
	"github.com/dukerupert/familycart/internal/images"
)

type testStores struct {
	db      *sql.DB
	catalog *CatalogStore
	lists   *ListStore
	history *HistoryStore
	images  *images.DiskStore
}

func setupTestDB(t *testing.T) testStores {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	imgs, err := images.NewDiskStore(t.TempDir(), "/images")
	if err != nil {
		t.Fatalf("image store: %v", err)
	}
	return testStores{
		db:      db,
		catalog: NewCatalogStore(db, imgs, nil),
		lists:   NewListStore(db),
		history: NewHistoryStore(db),
		images:  imgs,
	}
}

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int { return &n }
func idPtr(n int64) *int64 { return &n }
