package metadata

import (
	"fmt"

	"github.com/SlpAus/tabula-metadata-backend/pkg/markdown"
	"gorm.io/gorm"
)

// RenderMarkdown is the markup-to-sanitized-HTML collaborator used for
// the rich-text field. It is a package variable so tests can pin it.
var RenderMarkdown = markdown.Render

// GetScopeMetadata resolves the metadata for one exact scope: every
// recognized field keyed by its storage name, nil for fields without a
// value (a stored NULL and a stored empty string both read as nil),
// plus the raw markdown source of the most recent edit overlaid under
// description_markdown so the edit form can be re-populated.
//
// Reads are served from the in-process cache and fall through to the
// store when the cache has nothing for the scope.
func GetScopeMetadata(db *gorm.DB, target Target) (map[string]*string, error) {
	values := CacheScopeValues(target)
	if len(values) == 0 {
		entries, err := scanScope(db, target)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Value != nil && *entry.Value != "" {
				values[entry.Key] = *entry.Value
			}
		}
	}

	result := make(map[string]*string, len(values)+1)
	for _, field := range EditableFields(target.Kind) {
		key := resolveField(field)
		if value, ok := values[key]; ok {
			v := value
			result[key] = &v
		} else {
			result[key] = nil
		}
	}

	record, err := LastEdit(db, target)
	if err != nil {
		return nil, err
	}
	if record != nil {
		if source, ok := record.Fields[FieldDescriptionMarkdown]; ok && source != "" {
			v := source
			result[FieldDescriptionMarkdown] = &v
		}
	}

	return result, nil
}

// ApplyEdit persists one submitted edit: it fans the submission out
// across the scope's recognized fields, rendering the markdown field
// to sanitized HTML first, then appends exactly one audit record with
// the pre-render submission, updating the cache as each field lands.
//
// The fan-out is not transactional: if one field write fails, fields
// already written stay written. That partial application is an
// accepted limitation of the design, not something callers may assume
// is rolled back.
func ApplyEdit(db *gorm.DB, target Target, actorID *string, submitted map[string]string) error {
	for _, field := range EditableFields(target.Kind) {
		var value *string
		if raw, ok := submitted[field]; ok {
			if field == FieldDescriptionMarkdown {
				rendered := RenderMarkdown(raw)
				value = &rendered
			} else {
				v := raw
				value = &v
			}
		}
		// Fields absent from the submission are still written, as NULL.

		key := resolveField(field)
		if err := UpsertTarget(db, target, key, value); err != nil {
			return fmt.Errorf("edit partially applied at field %q: %w", field, err)
		}
		cacheStore(target, key, value)
	}

	if err := LogEdit(db, target, actorID, submitted); err != nil {
		return err
	}
	return nil
}
