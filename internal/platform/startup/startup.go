package startup

import (
	"fmt"

	"github.com/SlpAus/tabula-metadata-backend/internal/metadata"
	"github.com/SlpAus/tabula-metadata-backend/internal/platform/database"
)

// InitializeApplication runs the blocking startup sequence. It must
// complete before the server accepts requests: migration first, then
// cache rehydration, never concurrently. The rehydration scan only
// makes sense against the fully migrated shape.
func InitializeApplication() error {
	fmt.Println("starting application initialization...")

	if err := metadata.PrimeCachedDB(); err != nil {
		return err
	}

	fmt.Println("application initialization complete")
	return nil
}

// RebuildCache rebuilds the in-process metadata cache at runtime from
// the authoritative store.
func RebuildCache() error {
	fmt.Println("starting cache rebuild...")

	if err := metadata.WarmupCache(database.DB); err != nil {
		return err
	}

	fmt.Println("cache rebuild complete")
	return nil
}
