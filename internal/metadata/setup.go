package metadata

import (
	"fmt"
	"time"

	"github.com/SlpAus/tabula-metadata-backend/internal/platform/database"
	"github.com/SlpAus/tabula-metadata-backend/internal/platform/migrate"
	"gorm.io/gorm"
)

// PrimeDB brings the store to the current schema: the normalized
// per-scope tables first (they are the host-side tables the
// normalization migration targets), then the migration sequence. Any
// failure here is fatal to startup; serving requests against a store
// of unknown shape is unsafe.
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&InstanceMetadata{},
		&DatabaseMetadata{},
		&ResourceMetadata{},
		&ColumnMetadata{},
	); err != nil {
		return fmt.Errorf("failed to migrate normalized metadata tables: %w", err)
	}

	runner := migrate.NewRunner(db, Migrations())
	if err := runner.Apply(); err != nil {
		return err
	}

	fmt.Println("metadata store schema is up to date")
	return nil
}

// PrimeCachedDB is the metadata module's startup entry point: schema
// migration (fatal on failure), then cache rehydration (logged and
// tolerated on failure, the cache stays in its last-known state).
func PrimeCachedDB() error {
	if err := PrimeDB(database.DB); err != nil {
		return err
	}
	if err := WarmupCache(database.DB); err != nil {
		fmt.Printf("warning: metadata cache rehydration failed, serving with a cold cache: %v\n", err)
	}
	return nil
}

// lifecycleHandle is the subset of pkg/lifecycle.Handle the refresher
// needs.
type lifecycleHandle interface {
	Sleep(time.Duration) error
}

// RunCacheRefresher periodically rehydrates the cache from the store
// until the lifecycle handle is cancelled. It narrows the staleness
// window when several processes share one store; a single process does
// not need it. Call it in its own goroutine and close the handle when
// it returns.
func RunCacheRefresher(handle lifecycleHandle, interval time.Duration) {
	for {
		if err := handle.Sleep(interval); err != nil {
			return
		}
		if err := WarmupCache(database.DB); err != nil {
			fmt.Printf("warning: periodic cache refresh failed: %v\n", err)
		}
	}
}
