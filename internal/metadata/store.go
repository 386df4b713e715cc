package metadata

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the unified view of one stored metadata fact, independent
// of which per-scope table holds it. Path components beyond the
// scope's arity are empty strings.
type Entry struct {
	Kind     ScopeKind
	Database string
	Table    string
	Column   string
	Key      string
	Value    *string
}

// Target returns the entry's scope as a Target.
func (e Entry) Target() Target {
	return Target{Kind: e.Kind, Database: e.Database, Table: e.Table, Column: e.Column}
}

// Upsert writes one metadata fact, inserting or overwriting on the
// natural key (scope + field key). The path must match the scope's
// arity exactly; malformed paths are rejected before any storage
// access. Repeated identical writes leave exactly one row.
func Upsert(db *gorm.DB, kind ScopeKind, path []string, key string, value *string) error {
	target, err := TargetFromPath(kind, path)
	if err != nil {
		return err
	}
	return UpsertTarget(db, target, key, value)
}

// UpsertTarget is Upsert for an already-classified target.
func UpsertTarget(db *gorm.DB, target Target, key string, value *string) error {
	if key == "" {
		return fmt.Errorf("metadata key must not be empty")
	}

	var err error
	switch target.Kind {
	case ScopeInstance:
		row := InstanceMetadata{Key: key, Value: value}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&row).Error
	case ScopeDatabase:
		row := DatabaseMetadata{DatabaseName: target.Database, Key: key, Value: value}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "database_name"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&row).Error
	case ScopeTable:
		row := ResourceMetadata{DatabaseName: target.Database, ResourceName: target.Table, Key: key, Value: value}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "database_name"}, {Name: "resource_name"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&row).Error
	case ScopeColumn:
		row := ColumnMetadata{DatabaseName: target.Database, ResourceName: target.Table, ColumnName: target.Column, Key: key, Value: value}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "database_name"}, {Name: "resource_name"}, {Name: "column_name"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&row).Error
	default:
		return fmt.Errorf("unknown scope kind %q", target.Kind)
	}

	if err != nil {
		return fmt.Errorf("failed to upsert %s metadata %q: %w", target.Kind, key, err)
	}
	return nil
}

// ReadOne returns the stored value for one natural key. The second
// return reports whether a row exists; a stored NULL comes back as
// (nil, true, nil).
func ReadOne(db *gorm.DB, target Target, key string) (*string, bool, error) {
	entries, err := scanScope(db, target)
	if err != nil {
		return nil, false, err
	}
	for _, entry := range entries {
		if entry.Key == key {
			return entry.Value, true, nil
		}
	}
	return nil, false, nil
}

// Scan returns every stored entry for one scope kind, optionally
// narrowed by a path prefix (e.g. all table entries of one database).
// It backs cache rehydration and the migration transform.
func Scan(db *gorm.DB, kind ScopeKind, pathPrefix []string) ([]Entry, error) {
	if len(pathPrefix) > kind.PathArity() {
		return nil, fmt.Errorf("scope %s accepts at most %d path components, got %d", kind, kind.PathArity(), len(pathPrefix))
	}

	switch kind {
	case ScopeInstance:
		var rows []InstanceMetadata
		if err := db.Order("key asc").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to scan instance metadata: %w", err)
		}
		entries := make([]Entry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, Entry{Kind: ScopeInstance, Key: row.Key, Value: row.Value})
		}
		return entries, nil

	case ScopeDatabase:
		var rows []DatabaseMetadata
		query := db.Order("database_name asc, key asc")
		if len(pathPrefix) > 0 {
			query = query.Where("database_name = ?", pathPrefix[0])
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to scan database metadata: %w", err)
		}
		entries := make([]Entry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, Entry{Kind: ScopeDatabase, Database: row.DatabaseName, Key: row.Key, Value: row.Value})
		}
		return entries, nil

	case ScopeTable:
		var rows []ResourceMetadata
		query := db.Order("database_name asc, resource_name asc, key asc")
		if len(pathPrefix) > 0 {
			query = query.Where("database_name = ?", pathPrefix[0])
		}
		if len(pathPrefix) > 1 {
			query = query.Where("resource_name = ?", pathPrefix[1])
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to scan table metadata: %w", err)
		}
		entries := make([]Entry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, Entry{Kind: ScopeTable, Database: row.DatabaseName, Table: row.ResourceName, Key: row.Key, Value: row.Value})
		}
		return entries, nil

	case ScopeColumn:
		var rows []ColumnMetadata
		query := db.Order("database_name asc, resource_name asc, column_name asc, key asc")
		if len(pathPrefix) > 0 {
			query = query.Where("database_name = ?", pathPrefix[0])
		}
		if len(pathPrefix) > 1 {
			query = query.Where("resource_name = ?", pathPrefix[1])
		}
		if len(pathPrefix) > 2 {
			query = query.Where("column_name = ?", pathPrefix[2])
		}
		if err := query.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		entries := make([]Entry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, Entry{Kind: ScopeColumn, Database: row.DatabaseName, Table: row.ResourceName, Column: row.ColumnName, Key: row.Key, Value: row.Value})
		}
		return entries, nil
	}

	return nil, fmt.Errorf("unknown scope kind %q", kind)
}

// ScanAll returns every stored entry across all four scopes.
func ScanAll(db *gorm.DB) ([]Entry, error) {
	var all []Entry
	for _, kind := range []ScopeKind{ScopeInstance, ScopeDatabase, ScopeTable, ScopeColumn} {
		entries, err := Scan(db, kind, nil)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// scanScope returns the entries for one exact scope path.
func scanScope(db *gorm.DB, target Target) ([]Entry, error) {
	return Scan(db, target.Kind, target.Path())
}

// isNotFound distinguishes an absent row from a genuine storage
// failure in First-style lookups.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
