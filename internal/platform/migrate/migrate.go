// Package migrate applies named, forward-only schema migrations
// exactly once per store, tracked in a durable ledger table.
package migrate

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Step is a single named schema migration. Run executes inside a
// transaction; a step that depends on tables the store may not have
// yet must check for them and skip instead of failing, so the full
// sequence can be replayed against stores at any historical version.
type Step struct {
	Name string
	Run  func(tx *gorm.DB) error
}

// AppliedMigration is one row of the migration ledger.
type AppliedMigration struct {
	Name      string `gorm:"primaryKey;type:varchar(255)"`
	AppliedAt time.Time
}

// TableName pins the ledger table name.
func (AppliedMigration) TableName() string {
	return "metadata_migrations"
}

// Runner applies an ordered list of steps against one store.
type Runner struct {
	db    *gorm.DB
	steps []Step
}

// NewRunner creates a runner for the given store and step sequence.
func NewRunner(db *gorm.DB, steps []Step) *Runner {
	return &Runner{db: db, steps: steps}
}

// Apply runs every step not yet recorded in the ledger, in order,
// each inside its own transaction together with its ledger row. A
// failing step aborts the sequence; the caller must treat that as
// fatal, the store shape is unknown at that point.
func (r *Runner) Apply() error {
	if err := r.db.AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("failed to initialize migration ledger: %w", err)
	}

	applied, err := r.appliedSet()
	if err != nil {
		return err
	}

	pending := 0
	for _, step := range r.steps {
		if applied[step.Name] {
			continue
		}
		if err := r.applyStep(step); err != nil {
			return fmt.Errorf("migration %s failed: %w", step.Name, err)
		}
		fmt.Printf("migration applied: %s\n", step.Name)
		pending++
	}

	if pending == 0 {
		fmt.Println("no pending migrations")
	}
	return nil
}

// Applied returns the names recorded in the ledger, in applied order.
func (r *Runner) Applied() ([]string, error) {
	var rows []AppliedMigration
	if err := r.db.Order("applied_at asc, name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read migration ledger: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

func (r *Runner) appliedSet() (map[string]bool, error) {
	names, err := r.Applied()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set, nil
}

func (r *Runner) applyStep(step Step) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := step.Run(tx); err != nil {
			return err
		}
		return tx.Create(&AppliedMigration{Name: step.Name, AppliedAt: time.Now()}).Error
	})
}
