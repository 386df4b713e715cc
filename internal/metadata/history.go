package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// csrfTokenField is the anti-forgery token the host's forms submit. It
// never belongs in the audit payload.
const csrfTokenField = "csrftoken"

// EditRecord is one decoded audit row. Fields is nil when the stored
// payload is not a JSON object.
type EditRecord struct {
	EditHistory
	Fields map[string]string
}

// LogEdit appends one immutable audit row for an edit: the scope, the
// acting user (nil for anonymous) and the full submitted field set
// minus the anti-forgery token, exactly as the user sent it. The audit
// log is the only place the raw markdown source survives, the store
// keeps rendered HTML.
func LogEdit(db *gorm.DB, target Target, actorID *string, fields map[string]string) error {
	clean := make(map[string]string, len(fields))
	for key, value := range fields {
		if key == csrfTokenField {
			continue
		}
		clean[key] = value
	}

	payload, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("failed to serialize edit fields: %w", err)
	}

	row := EditHistory{
		TargetType:   string(target.Kind),
		DatabaseName: nullableComponent(target.Database),
		ResourceName: nullableComponent(target.Table),
		ColumnName:   nullableComponent(target.Column),
		ActorID:      actorID,
		UpdatedAt:    time.Now(),
		FieldsJSON:   string(payload),
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append edit history: %w", err)
	}
	return nil
}

// LastEdit returns the most recent audit row matching the target, or
// nil when the scope has never been edited. Filters apply only for the
// components the target actually has. The result recovers form state
// for re-editing and must never be treated as authoritative metadata.
func LastEdit(db *gorm.DB, target Target) (*EditRecord, error) {
	query := db.Where("target_type = ?", string(target.Kind))
	if target.Database != "" {
		query = query.Where("database_name = ?", target.Database)
	}
	if target.Table != "" {
		query = query.Where("resource_name = ?", target.Table)
	}
	if target.Column != "" {
		query = query.Where("column_name = ?", target.Column)
	}

	var row EditHistory
	err := query.Order("updated_at desc, id desc").First(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read edit history: %w", err)
	}

	record := &EditRecord{EditHistory: row}
	if strings.HasPrefix(strings.TrimSpace(row.FieldsJSON), "{") {
		if err := json.Unmarshal([]byte(row.FieldsJSON), &record.Fields); err != nil {
			// Malformed historical payloads are tolerated: the row is
			// still returned, just without decoded fields.
			record.Fields = nil
		}
	}
	return record, nil
}

func nullableComponent(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
