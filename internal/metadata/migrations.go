package metadata

import (
	"fmt"

	"github.com/SlpAus/tabula-metadata-backend/internal/platform/migrate"
	"gorm.io/gorm"
)

// flatEntry mirrors the historical generic entries table. It only
// exists for the normalization migration; current code never writes
// this shape.
type flatEntry struct {
	TargetType     string
	TargetDatabase string
	TargetTable    string
	TargetColumn   string
	Key            string
	Value          *string
}

// Migrations returns the ordered schema evolution of the metadata
// store. Steps run exactly once each, tracked by the migrate ledger.
func Migrations() []migrate.Step {
	return []migrate.Step{
		{Name: "m001_create_entries", Run: createEntriesTable},
		{Name: "m002_normalize_entries", Run: normalizeEntries},
		{Name: "m003_edit_history", Run: createEditHistory},
	}
}

// createEntriesTable creates the original flat entries table. Absent
// scope components are stored as empty strings, not NULL: SQLite
// treats NULL as distinct from NULL in UNIQUE comparisons, and leaving
// them nullable silently breaks the natural-key constraint.
func createEntriesTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE metadata_entries(
			target_type text not null,
			target_database text not null,
			target_table text not null,
			target_column text not null,
			key text not null,
			value text,
			UNIQUE(target_type, target_database, target_table, target_column, key)
		)`).Error
}

// normalizeEntries drains the flat entries table into the per-scope
// tables, then drops it. The singleton instance scope is upserted with
// overwrite; the other scopes are inserted as-is. The step is skipped
// when either the flat table or the normalized instance table is
// missing, so it is safe to replay against already-migrated stores and
// against stores whose normalized tables have not been provisioned.
func normalizeEntries(tx *gorm.DB) error {
	migrator := tx.Migrator()
	if !migrator.HasTable("metadata_entries") || !migrator.HasTable(&InstanceMetadata{}) {
		return nil
	}

	var rows []flatEntry
	if err := tx.Table("metadata_entries").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to read flat entries: %w", err)
	}

	for _, row := range rows {
		var err error
		switch row.TargetType {
		case legacyInstanceType, string(ScopeInstance):
			err = UpsertTarget(tx, Target{Kind: ScopeInstance}, row.Key, row.Value)
		case string(ScopeDatabase):
			err = tx.Create(&DatabaseMetadata{
				DatabaseName: row.TargetDatabase,
				Key:          row.Key,
				Value:        row.Value,
			}).Error
		case string(ScopeTable):
			err = tx.Create(&ResourceMetadata{
				DatabaseName: row.TargetDatabase,
				ResourceName: row.TargetTable,
				Key:          row.Key,
				Value:        row.Value,
			}).Error
		case string(ScopeColumn):
			err = tx.Create(&ColumnMetadata{
				DatabaseName: row.TargetDatabase,
				ResourceName: row.TargetTable,
				ColumnName:   row.TargetColumn,
				Key:          row.Key,
				Value:        row.Value,
			}).Error
		default:
			// Unknown historical rows are carried nowhere; dropping
			// the table loses them, which matches the original
			// behavior of this transform.
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to normalize %s entry %q: %w", row.TargetType, row.Key, err)
		}
	}

	if err := migrator.DropTable("metadata_entries"); err != nil {
		return fmt.Errorf("failed to drop flat entries table: %w", err)
	}
	return nil
}

// createEditHistory creates the append-only audit table together with
// the composite index that makes "most recent edit for scope" cheap.
func createEditHistory(tx *gorm.DB) error {
	if err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata_edit_history(
			id integer primary key autoincrement,
			target_type varchar(32) not null,
			database_name varchar(255),
			resource_name varchar(255),
			column_name varchar(255),
			actor_id varchar(255),
			updated_at datetime,
			fields_json text
		)`).Error; err != nil {
		return err
	}
	return tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_metadata_edit_history_scope
		ON metadata_edit_history(target_type, database_name, resource_name, column_name, updated_at)`).Error
}
