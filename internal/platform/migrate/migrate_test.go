package migrate

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/SlpAus/tabula-metadata-backend/internal/platform/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	return db
}

func TestApplyRunsEachStepExactlyOnce(t *testing.T) {
	db := openTestDB(t)

	runs := 0
	steps := []Step{
		{Name: "s001_count", Run: func(tx *gorm.DB) error {
			runs++
			return nil
		}},
	}

	runner := NewRunner(db, steps)
	require.NoError(t, runner.Apply())
	require.NoError(t, runner.Apply())
	assert.Equal(t, 1, runs, "a recorded step must not run again")

	applied, err := runner.Applied()
	require.NoError(t, err)
	assert.Equal(t, []string{"s001_count"}, applied)
}

func TestApplyRunsStepsInOrder(t *testing.T) {
	db := openTestDB(t)

	var order []string
	step := func(name string) Step {
		return Step{Name: name, Run: func(tx *gorm.DB) error {
			order = append(order, name)
			return nil
		}}
	}

	runner := NewRunner(db, []Step{step("s001_first"), step("s002_second"), step("s003_third")})
	require.NoError(t, runner.Apply())
	assert.Equal(t, []string{"s001_first", "s002_second", "s003_third"}, order)
}

func TestApplyResumesAfterNewStepsAppear(t *testing.T) {
	db := openTestDB(t)

	first := Step{Name: "s001", Run: func(tx *gorm.DB) error { return nil }}
	require.NoError(t, NewRunner(db, []Step{first}).Apply())

	secondRan := false
	second := Step{Name: "s002", Run: func(tx *gorm.DB) error {
		secondRan = true
		return nil
	}}

	runner := NewRunner(db, []Step{first, second})
	require.NoError(t, runner.Apply())
	assert.True(t, secondRan)

	applied, err := runner.Applied()
	require.NoError(t, err)
	assert.Equal(t, []string{"s001", "s002"}, applied)
}

func TestApplyFailureAbortsAndRollsBackTheStep(t *testing.T) {
	db := openTestDB(t)

	stepErr := errors.New("boom")
	thirdRan := false
	steps := []Step{
		{Name: "s001_ok", Run: func(tx *gorm.DB) error { return nil }},
		{Name: "s002_fails", Run: func(tx *gorm.DB) error {
			if err := tx.Exec("CREATE TABLE half_done(id integer)").Error; err != nil {
				return err
			}
			return stepErr
		}},
		{Name: "s003_never", Run: func(tx *gorm.DB) error {
			thirdRan = true
			return nil
		}},
	}

	runner := NewRunner(db, steps)
	err := runner.Apply()
	require.Error(t, err)
	assert.ErrorIs(t, err, stepErr)
	assert.False(t, thirdRan, "steps after a failure must not run")

	// The failing step's own writes are rolled back with it.
	assert.False(t, db.Migrator().HasTable("half_done"))

	applied, lerr := runner.Applied()
	require.NoError(t, lerr)
	assert.Equal(t, []string{"s001_ok"}, applied, "the failed step must not be recorded")
}
