package metadata

import "time"

// The normalized per-scope tables below are the authoritative store.
// A historical flat table ("metadata_entries", see migrations.go) is
// drained into them by migration and no longer has a model here.
//
// Value columns are nullable: NULL records "field submitted with no
// value" and stays distinct from a row that was never written.

// InstanceMetadata is one metadata fact about the whole instance.
type InstanceMetadata struct {
	Key   string `gorm:"primaryKey;type:varchar(255)"`
	Value *string
}

// TableName pins the table name.
func (InstanceMetadata) TableName() string {
	return "metadata_instance"
}

// DatabaseMetadata is one metadata fact about a database.
type DatabaseMetadata struct {
	DatabaseName string `gorm:"primaryKey;type:varchar(255)"`
	Key          string `gorm:"primaryKey;type:varchar(255)"`
	Value        *string
}

// TableName pins the table name.
func (DatabaseMetadata) TableName() string {
	return "metadata_databases"
}

// ResourceMetadata is one metadata fact about a table (a "resource"
// in host terminology).
type ResourceMetadata struct {
	DatabaseName string `gorm:"primaryKey;type:varchar(255)"`
	ResourceName string `gorm:"primaryKey;type:varchar(255)"`
	Key          string `gorm:"primaryKey;type:varchar(255)"`
	Value        *string
}

// TableName pins the table name.
func (ResourceMetadata) TableName() string {
	return "metadata_resources"
}

// ColumnMetadata is one metadata fact about a column.
type ColumnMetadata struct {
	DatabaseName string `gorm:"primaryKey;type:varchar(255)"`
	ResourceName string `gorm:"primaryKey;type:varchar(255)"`
	ColumnName   string `gorm:"primaryKey;type:varchar(255)"`
	Key          string `gorm:"primaryKey;type:varchar(255)"`
	Value        *string
}

// TableName pins the table name.
func (ColumnMetadata) TableName() string {
	return "metadata_columns"
}

// EditHistory is one immutable audit row for a metadata edit. Rows are
// appended by the write path and never updated or deleted. Scope
// components and the actor are nullable; FieldsJSON holds the full
// submission as the user sent it, before any rendering.
type EditHistory struct {
	ID           uint    `gorm:"primaryKey"`
	TargetType   string  `gorm:"type:varchar(32);not null"`
	DatabaseName *string `gorm:"type:varchar(255)"`
	ResourceName *string `gorm:"type:varchar(255)"`
	ColumnName   *string `gorm:"type:varchar(255)"`
	ActorID      *string `gorm:"type:varchar(255)"`
	UpdatedAt    time.Time
	FieldsJSON   string
}

// TableName pins the table name.
func (EditHistory) TableName() string {
	return "metadata_edit_history"
}

// --- Editable field keys ---

const (
	FieldTitle               = "title"
	FieldDescriptionMarkdown = "description_markdown"
	FieldDescriptionHTML     = "description_html"
	FieldSource              = "source"
	FieldLicense             = "license"
	FieldSourceURL           = "source_url"
	FieldLicenseURL          = "license_url"
)

// scopedFields are the fields every scope accepts.
var scopedFields = []string{
	FieldDescriptionMarkdown,
	FieldSource,
	FieldLicense,
	FieldSourceURL,
	FieldLicenseURL,
}

// instanceFields adds the title, which only the instance scope has.
var instanceFields = append([]string{FieldTitle}, scopedFields...)

// EditableFields returns the recognized submission fields for a scope.
func EditableFields(kind ScopeKind) []string {
	if kind == ScopeInstance {
		return instanceFields
	}
	return scopedFields
}

// resolveField maps a submission field to its storage key. The
// markdown source field is persisted as rendered HTML.
func resolveField(field string) string {
	if field == FieldDescriptionMarkdown {
		return FieldDescriptionHTML
	}
	return field
}
