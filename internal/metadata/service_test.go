package metadata

import (
	"path/filepath"
	"testing"

	"github.com/SlpAus/tabula-metadata-backend/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceTitleLastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeInstance}

	require.NoError(t, ApplyEdit(db, target, nil, map[string]string{FieldTitle: "yo"}))

	values, err := GetScopeMetadata(db, target)
	require.NoError(t, err)
	require.NotNil(t, values[FieldTitle])
	assert.Equal(t, "yo", *values[FieldTitle])

	require.NoError(t, ApplyEdit(db, target, nil, map[string]string{FieldTitle: "yo2"}))

	values, err = GetScopeMetadata(db, target)
	require.NoError(t, err)
	require.NotNil(t, values[FieldTitle])
	assert.Equal(t, "yo2", *values[FieldTitle])

	var count int64
	require.NoError(t, db.Model(&InstanceMetadata{}).Where("key = ?", FieldTitle).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTableEditRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeTable, Database: "content", Table: "posts"}

	require.NoError(t, ApplyEdit(db, target, strptr("editor-1"), map[string]string{
		FieldDescriptionMarkdown: "<b>New description</b>",
		FieldLicense:             "MIT",
		FieldSource:              "New source",
	}))

	values, err := GetScopeMetadata(db, target)
	require.NoError(t, err)

	require.NotNil(t, values[FieldDescriptionHTML])
	assert.Equal(t, "<p><b>New description</b></p>", *values[FieldDescriptionHTML])
	require.NotNil(t, values[FieldLicense])
	assert.Equal(t, "MIT", *values[FieldLicense])
	require.NotNil(t, values[FieldSource])
	assert.Equal(t, "New source", *values[FieldSource])
	assert.Nil(t, values[FieldLicenseURL])
	assert.Nil(t, values[FieldSourceURL])
}

func TestMarkdownIsRenderedAndSanitized(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeDatabase, Database: "content"}

	require.NoError(t, ApplyEdit(db, target, nil, map[string]string{
		FieldDescriptionMarkdown: "**bold** <script>alert('x')</script>",
	}))

	values, err := GetScopeMetadata(db, target)
	require.NoError(t, err)
	require.NotNil(t, values[FieldDescriptionHTML])
	assert.Contains(t, *values[FieldDescriptionHTML], "<strong>bold</strong>")
	assert.NotContains(t, *values[FieldDescriptionHTML], "<script")
}

func TestMarkdownSourceRecoveredFromAuditLog(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeTable, Database: "content", Table: "posts"}

	require.NoError(t, ApplyEdit(db, target, nil, map[string]string{
		FieldDescriptionMarkdown: "**bold**",
	}))

	values, err := GetScopeMetadata(db, target)
	require.NoError(t, err)

	// The store only keeps rendered HTML; the raw source comes back
	// from the most recent audit record for re-editing.
	require.NotNil(t, values[FieldDescriptionHTML])
	assert.Equal(t, "<p><strong>bold</strong></p>", *values[FieldDescriptionHTML])
	require.NotNil(t, values[FieldDescriptionMarkdown])
	assert.Equal(t, "**bold**", *values[FieldDescriptionMarkdown])
}

func TestEditAppendsExactlyOneAuditRecord(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeColumn, Database: "content", Table: "posts", Column: "title"}

	require.NoError(t, ApplyEdit(db, target, strptr("editor-1"), map[string]string{
		FieldSource:  "somewhere",
		FieldLicense: "MIT",
	}))

	var count int64
	require.NoError(t, db.Model(&EditHistory{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "one edit, one audit row, regardless of field count")

	record, err := LastEdit(db, target)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "somewhere", record.Fields[FieldSource])
}

func TestReadToleratesLegacyEmptyValues(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeTable, Database: "content", Table: "posts"}

	// Rows the normalization migration carried over from the flat
	// store: empty strings for source/license, real HTML description.
	require.NoError(t, UpsertTarget(db, target, FieldSource, strptr("")))
	require.NoError(t, UpsertTarget(db, target, FieldLicense, strptr("")))
	require.NoError(t, UpsertTarget(db, target, FieldDescriptionHTML, strptr("<p>still here</p>")))

	values, err := GetScopeMetadata(db, target)
	require.NoError(t, err)

	assert.Nil(t, values[FieldSource], "empty string reads as no value")
	assert.Nil(t, values[FieldLicense])
	require.NotNil(t, values[FieldDescriptionHTML])
	assert.Equal(t, "<p>still here</p>", *values[FieldDescriptionHTML])
}

func TestPartialWriteIsNotRolledBack(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeTable, Database: "content", Table: "posts"}

	// Inject a storage failure for one specific field, mid fan-out.
	require.NoError(t, db.Exec(`
		CREATE TRIGGER inject_license_failure
		BEFORE INSERT ON metadata_resources
		WHEN NEW.key = 'license'
		BEGIN SELECT RAISE(ABORT, 'injected storage failure'); END`).Error)

	err := ApplyEdit(db, target, nil, map[string]string{
		FieldDescriptionMarkdown: "desc",
		FieldSource:              "src",
		FieldLicense:             "MIT",
	})
	require.Error(t, err)

	// Fields written before the failure stay written: the fan-out is
	// documented as non-transactional.
	_, found, rerr := ReadOne(db, target, FieldDescriptionHTML)
	require.NoError(t, rerr)
	assert.True(t, found)

	_, found, rerr = ReadOne(db, target, FieldLicense)
	require.NoError(t, rerr)
	assert.False(t, found)

	// The audit record is only appended after a fully fanned-out edit.
	var count int64
	require.NoError(t, db.Model(&EditHistory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMetadataSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restart.db")

	db, err := database.Open(path)
	require.NoError(t, err)
	ResetCacheForTest()
	require.NoError(t, PrimeDB(db))

	target := Target{Kind: ScopeDatabase, Database: "content"}
	require.NoError(t, ApplyEdit(db, target, nil, map[string]string{
		FieldDescriptionMarkdown: "**durable**",
		FieldLicense:             "MIT",
	}))

	// Simulate a restart: fresh connection, cold cache, startup
	// sequence against the same file.
	ResetCacheForTest()
	db2, err := database.Open(path)
	require.NoError(t, err)
	require.NoError(t, PrimeDB(db2))
	require.NoError(t, WarmupCache(db2))

	values, err := GetScopeMetadata(db2, target)
	require.NoError(t, err)
	require.NotNil(t, values[FieldDescriptionHTML])
	assert.Equal(t, "<p><strong>durable</strong></p>", *values[FieldDescriptionHTML])
	require.NotNil(t, values[FieldLicense])
	assert.Equal(t, "MIT", *values[FieldLicense])

	cached := CacheScopeValues(target)
	assert.Equal(t, "<p><strong>durable</strong></p>", cached[FieldDescriptionHTML])
}

func TestWriteUpdatesCacheSynchronously(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeInstance}

	require.NoError(t, ApplyEdit(db, target, nil, map[string]string{FieldTitle: "cached"}))

	// No warmup between write and read: the write path itself must
	// have updated the cache.
	assert.Equal(t, "cached", CacheScopeValues(target)[FieldTitle])
}
