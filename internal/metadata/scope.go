package metadata

import "fmt"

// ScopeKind is the level at which a piece of metadata applies.
type ScopeKind string

const (
	ScopeInstance ScopeKind = "instance"
	ScopeDatabase ScopeKind = "database"
	ScopeTable    ScopeKind = "table"
	ScopeColumn   ScopeKind = "column"
)

// legacyInstanceType is the value historical flat-table rows used for
// the instance scope.
const legacyInstanceType = "index"

// PathArity returns how many identifiers narrow down to this scope.
func (k ScopeKind) PathArity() int {
	switch k {
	case ScopeInstance:
		return 0
	case ScopeDatabase:
		return 1
	case ScopeTable:
		return 2
	case ScopeColumn:
		return 3
	}
	return -1
}

// Valid reports whether k is one of the four known scopes.
func (k ScopeKind) Valid() bool {
	return k.PathArity() >= 0
}

// Target identifies one metadata scope. Identifiers beyond the kind's
// arity are empty strings, the same sentinel the store uses.
type Target struct {
	Kind     ScopeKind
	Database string
	Table    string
	Column   string
}

// Path returns the target's identifiers up to the kind's arity.
func (t Target) Path() []string {
	switch t.Kind {
	case ScopeDatabase:
		return []string{t.Database}
	case ScopeTable:
		return []string{t.Database, t.Table}
	case ScopeColumn:
		return []string{t.Database, t.Table, t.Column}
	}
	return nil
}

// ClassifyTarget maps a (database, table, column) request onto exactly
// one scope: no database means instance, database alone means
// database, database+table means table, all three mean column. The
// mapping never depends on whether metadata exists for the scope.
// Identifier combinations that skip a level (column without table,
// table without database) are precondition errors.
func ClassifyTarget(database, table, column string) (Target, error) {
	if column != "" && (table == "" || database == "") {
		return Target{}, fmt.Errorf("invalid scope: column %q given without database and table", column)
	}
	if table != "" && database == "" {
		return Target{}, fmt.Errorf("invalid scope: table %q given without database", table)
	}

	switch {
	case database == "":
		return Target{Kind: ScopeInstance}, nil
	case table == "":
		return Target{Kind: ScopeDatabase, Database: database}, nil
	case column == "":
		return Target{Kind: ScopeTable, Database: database, Table: table}, nil
	default:
		return Target{Kind: ScopeColumn, Database: database, Table: table, Column: column}, nil
	}
}

// TargetFromPath builds a Target for a kind from an identifier path.
// The path length must match the kind's arity exactly and every
// component must be non-empty.
func TargetFromPath(kind ScopeKind, path []string) (Target, error) {
	if !kind.Valid() {
		return Target{}, fmt.Errorf("unknown scope kind %q", kind)
	}
	if len(path) != kind.PathArity() {
		return Target{}, fmt.Errorf("scope %s expects %d path components, got %d", kind, kind.PathArity(), len(path))
	}
	for i, component := range path {
		if component == "" {
			return Target{}, fmt.Errorf("scope %s has empty path component at position %d", kind, i)
		}
	}

	t := Target{Kind: kind}
	if len(path) > 0 {
		t.Database = path[0]
	}
	if len(path) > 1 {
		t.Table = path[1]
	}
	if len(path) > 2 {
		t.Column = path[2]
	}
	return t, nil
}
