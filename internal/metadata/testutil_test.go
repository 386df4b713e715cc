package metadata

import (
	"path/filepath"
	"testing"

	"github.com/SlpAus/tabula-metadata-backend/internal/platform/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh on-disk store, brings it to the current
// schema and empties the process cache.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	require.NoError(t, PrimeDB(db))
	ResetCacheForTest()
	return db
}

func strptr(s string) *string {
	return &s
}
