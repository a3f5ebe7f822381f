package reconcile

import (
	"context"

	"market-sync/core/cache"

	"gorm.io/gorm"
)

// Spec defines the configuration for reconciling one entity type against one
// batch of externally observed records.
type Spec[E any, R any] struct {
	// Name labels the entity type in logs (e.g. "exchange", "symbol").
	Name string

	// Cache resolves existing entities by natural key and receives new and
	// refreshed entities.
	Cache *cache.Cache[E]

	// KeyAttr is the cacheable attribute serving as the natural key for this
	// operation. Identity resolution uses this attribute and nothing else.
	KeyAttr string

	// Key extracts the natural key from an external record. An error rejects
	// the record without failing the batch.
	Key func(R) (string, error)

	// Fields is the declarative list of tracked fields.
	Fields []Field[E, R]

	// New constructs an entity for a record with no local counterpart. The
	// identifier is allocator-issued and immutable thereafter.
	New func(R, int64) (E, error)

	// Touch marks an entity changed: bump its revision counter and refresh
	// its last-modified timestamp. Called once per changed entity.
	Touch func(E)

	// Vanished, when set, runs last inside the batch transaction. It receives
	// the set of natural keys observed in the batch and deactivates entities
	// the source no longer reports, returning how many it touched.
	Vanished func(ctx context.Context, tx *gorm.DB, seen map[string]struct{}) (int, error)

	// InsertBatchSize bounds one INSERT statement. Zero means the default.
	InsertBatchSize int
}

// Result summarizes one reconciliation run.
type Result struct {
	// Total is the number of records in the external batch.
	Total int
	// New counts entities created.
	New int
	// Updated counts existing entities with at least one changed field.
	Updated int
	// Unchanged counts existing entities identical to their external record.
	Unchanged int
	// Vanished counts entities deactivated because the source stopped
	// reporting them.
	Vanished int
	// Rejected counts records dropped for a malformed or duplicate natural key.
	Rejected int
}
