package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeTable, Database: "content", Table: "posts"}

	require.NoError(t, UpsertTarget(db, target, FieldLicense, strptr("MIT")))
	require.NoError(t, UpsertTarget(db, target, FieldLicense, strptr("MIT")))

	var count int64
	require.NoError(t, db.Model(&ResourceMetadata{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "repeated identical writes must keep one row")

	value, found, err := ReadOne(db, target, FieldLicense)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "MIT", *value)
}

func TestUpsertLastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeInstance}

	require.NoError(t, UpsertTarget(db, target, FieldTitle, strptr("yo")))
	require.NoError(t, UpsertTarget(db, target, FieldTitle, strptr("yo2")))

	var count int64
	require.NoError(t, db.Model(&InstanceMetadata{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	value, found, err := ReadOne(db, target, FieldTitle)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "yo2", *value)
}

func TestUpsertStoresNullDistinctFromAbsent(t *testing.T) {
	db := setupTestDB(t)
	target := Target{Kind: ScopeDatabase, Database: "content"}

	require.NoError(t, UpsertTarget(db, target, FieldSourceURL, nil))

	value, found, err := ReadOne(db, target, FieldSourceURL)
	require.NoError(t, err)
	assert.True(t, found, "a stored NULL is a row, not an absence")
	assert.Nil(t, value)

	_, found, err = ReadOne(db, target, FieldLicenseURL)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpsertRejectsMalformedPathBeforeStorage(t *testing.T) {
	db := setupTestDB(t)

	assert.Error(t, Upsert(db, ScopeColumn, []string{"content"}, FieldSource, strptr("x")))
	assert.Error(t, Upsert(db, ScopeDatabase, []string{""}, FieldSource, strptr("x")))
	assert.Error(t, Upsert(db, ScopeInstance, nil, "", strptr("x")))

	var count int64
	require.NoError(t, db.Model(&ColumnMetadata{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestScopesDoNotCollide(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Upsert(db, ScopeDatabase, []string{"content"}, FieldSource, strptr("db-level")))
	require.NoError(t, Upsert(db, ScopeTable, []string{"content", "posts"}, FieldSource, strptr("table-level")))
	require.NoError(t, Upsert(db, ScopeColumn, []string{"content", "posts", "title"}, FieldSource, strptr("column-level")))

	value, _, err := ReadOne(db, Target{Kind: ScopeTable, Database: "content", Table: "posts"}, FieldSource)
	require.NoError(t, err)
	assert.Equal(t, "table-level", *value)

	value, _, err = ReadOne(db, Target{Kind: ScopeColumn, Database: "content", Table: "posts", Column: "title"}, FieldSource)
	require.NoError(t, err)
	assert.Equal(t, "column-level", *value)
}

func TestScanFiltersByPathPrefix(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Upsert(db, ScopeTable, []string{"content", "posts"}, FieldLicense, strptr("MIT")))
	require.NoError(t, Upsert(db, ScopeTable, []string{"content", "tags"}, FieldLicense, strptr("CC0")))
	require.NoError(t, Upsert(db, ScopeTable, []string{"analytics", "events"}, FieldLicense, strptr("internal")))

	all, err := Scan(db, ScopeTable, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	contentOnly, err := Scan(db, ScopeTable, []string{"content"})
	require.NoError(t, err)
	assert.Len(t, contentOnly, 2)

	exact, err := Scan(db, ScopeTable, []string{"content", "posts"})
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "MIT", *exact[0].Value)

	_, err = Scan(db, ScopeDatabase, []string{"a", "b"})
	assert.Error(t, err, "prefix longer than arity must be rejected")
}

func TestScanAllCoversEveryScope(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Upsert(db, ScopeInstance, nil, FieldTitle, strptr("Instance")))
	require.NoError(t, Upsert(db, ScopeDatabase, []string{"content"}, FieldSource, strptr("src")))
	require.NoError(t, Upsert(db, ScopeTable, []string{"content", "posts"}, FieldLicense, strptr("MIT")))
	require.NoError(t, Upsert(db, ScopeColumn, []string{"content", "posts", "title"}, FieldDescriptionHTML, strptr("<p>t</p>")))

	entries, err := ScanAll(db)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	kinds := make(map[ScopeKind]int)
	for _, entry := range entries {
		kinds[entry.Kind]++
	}
	assert.Equal(t, map[ScopeKind]int{
		ScopeInstance: 1,
		ScopeDatabase: 1,
		ScopeTable:    1,
		ScopeColumn:   1,
	}, kinds)
}
