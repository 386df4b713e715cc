package metadata

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// The in-process cache. It is derived state only: the store is
// authoritative, and the cache is rebuilt from a full scan at startup
// and updated in place on every successful write. In a multi-process
// deployment each process holds its own copy with no cross-process
// invalidation; the staleness window is bounded only by the optional
// background refresher.
//
// Only fields with a non-empty value are cached. NULL and empty-string
// values both read back as "no value" (see service.go), so the cache
// does not need to distinguish them.

// scopeCache is the nested scope mapping: instance fields, then
// per-database, per-table and per-column field maps.
type scopeCache struct {
	instance  map[string]string
	databases map[string]map[string]string
	resources map[string]map[string]map[string]string
	columns   map[string]map[string]map[string]map[string]string
}

func newScopeCache() *scopeCache {
	return &scopeCache{
		instance:  make(map[string]string),
		databases: make(map[string]map[string]string),
		resources: make(map[string]map[string]map[string]string),
		columns:   make(map[string]map[string]map[string]map[string]string),
	}
}

// repoMutex guards the cache. Mutations take the write lock; readers
// copy what they need under the read lock, so a reader sees either the
// pre-write or the fully post-write state, never a torn update.
var repoMutex sync.RWMutex

var cache = newScopeCache()

// WarmupCache rebuilds the cache from a full store scan and swaps it
// in atomically. On failure the previous cache stays in place; the
// caller decides whether that is fatal (at startup it is not).
func WarmupCache(db *gorm.DB) error {
	entries, err := ScanAll(db)
	if err != nil {
		return fmt.Errorf("failed to scan metadata store for cache warmup: %w", err)
	}

	fresh := newScopeCache()
	for _, entry := range entries {
		fresh.store(entry.Target(), entry.Key, entry.Value)
	}

	repoMutex.Lock()
	cache = fresh
	repoMutex.Unlock()

	fmt.Printf("metadata cache rehydrated with %d stored entries\n", len(entries))
	return nil
}

// ResetCacheForTest empties the cache so tests can prove it is fully
// reconstructible from the store.
func ResetCacheForTest() {
	repoMutex.Lock()
	cache = newScopeCache()
	repoMutex.Unlock()
}

// CacheScopeValues returns the cached non-empty field values for one
// exact scope. The returned map is a copy.
func CacheScopeValues(target Target) map[string]string {
	repoMutex.RLock()
	defer repoMutex.RUnlock()

	fields := cache.lookup(target)
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		out[key] = value
	}
	return out
}

// cacheStore records one written value in place. Called by the write
// path after a successful upsert, before the write returns.
func cacheStore(target Target, key string, value *string) {
	repoMutex.Lock()
	defer repoMutex.Unlock()
	cache.store(target, key, value)
}

func (c *scopeCache) lookup(target Target) map[string]string {
	switch target.Kind {
	case ScopeInstance:
		return c.instance
	case ScopeDatabase:
		return c.databases[target.Database]
	case ScopeTable:
		if byTable, ok := c.resources[target.Database]; ok {
			return byTable[target.Table]
		}
	case ScopeColumn:
		if byTable, ok := c.columns[target.Database]; ok {
			if byColumn, ok := byTable[target.Table]; ok {
				return byColumn[target.Column]
			}
		}
	}
	return nil
}

func (c *scopeCache) store(target Target, key string, value *string) {
	// An empty or NULL value clears the cached field rather than
	// caching an empty string.
	clear := value == nil || *value == ""

	var fields map[string]string
	switch target.Kind {
	case ScopeInstance:
		fields = c.instance
	case ScopeDatabase:
		if c.databases[target.Database] == nil {
			if clear {
				return
			}
			c.databases[target.Database] = make(map[string]string)
		}
		fields = c.databases[target.Database]
	case ScopeTable:
		if c.resources[target.Database] == nil {
			if clear {
				return
			}
			c.resources[target.Database] = make(map[string]map[string]string)
		}
		if c.resources[target.Database][target.Table] == nil {
			if clear {
				return
			}
			c.resources[target.Database][target.Table] = make(map[string]string)
		}
		fields = c.resources[target.Database][target.Table]
	case ScopeColumn:
		if c.columns[target.Database] == nil {
			if clear {
				return
			}
			c.columns[target.Database] = make(map[string]map[string]map[string]string)
		}
		if c.columns[target.Database][target.Table] == nil {
			if clear {
				return
			}
			c.columns[target.Database][target.Table] = make(map[string]map[string]string)
		}
		if c.columns[target.Database][target.Table][target.Column] == nil {
			if clear {
				return
			}
			c.columns[target.Database][target.Table][target.Column] = make(map[string]string)
		}
		fields = c.columns[target.Database][target.Table][target.Column]
	default:
		return
	}

	if clear {
		delete(fields, key)
		return
	}
	fields[key] = *value
}

// --- Whole-instance snapshot ---

// TableSnapshot is the cached metadata of one table and its columns.
type TableSnapshot struct {
	Fields  map[string]string            `json:"fields"`
	Columns map[string]map[string]string `json:"columns"`
}

// DatabaseSnapshot is the cached metadata of one database and its
// tables.
type DatabaseSnapshot struct {
	Fields map[string]string        `json:"fields"`
	Tables map[string]TableSnapshot `json:"tables"`
}

// InstanceSnapshot is the whole nested cache in one structure.
type InstanceSnapshot struct {
	Instance  map[string]string           `json:"instance"`
	Databases map[string]DatabaseSnapshot `json:"databases"`
}

// CacheSnapshot deep-copies the entire nested cache. It backs the
// whole-instance read endpoint.
func CacheSnapshot() InstanceSnapshot {
	repoMutex.RLock()
	defer repoMutex.RUnlock()

	snapshot := InstanceSnapshot{
		Instance:  copyFields(cache.instance),
		Databases: make(map[string]DatabaseSnapshot),
	}

	databaseNames := make(map[string]bool)
	for name := range cache.databases {
		databaseNames[name] = true
	}
	for name := range cache.resources {
		databaseNames[name] = true
	}
	for name := range cache.columns {
		databaseNames[name] = true
	}

	for name := range databaseNames {
		dbSnap := DatabaseSnapshot{
			Fields: copyFields(cache.databases[name]),
			Tables: make(map[string]TableSnapshot),
		}

		tableNames := make(map[string]bool)
		for table := range cache.resources[name] {
			tableNames[table] = true
		}
		for table := range cache.columns[name] {
			tableNames[table] = true
		}

		for table := range tableNames {
			tableSnap := TableSnapshot{
				Fields:  copyFields(cache.resources[name][table]),
				Columns: make(map[string]map[string]string),
			}
			for column, fields := range cache.columns[name][table] {
				tableSnap.Columns[column] = copyFields(fields)
			}
			dbSnap.Tables[table] = tableSnap
		}

		snapshot.Databases[name] = dbSnap
	}

	return snapshot
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		out[key] = value
	}
	return out
}
