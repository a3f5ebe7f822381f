package idgen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrExhausted indicates that the allocator could not reserve a new identifier
// range from its source. Identifiers already pooled remain valid.
var ErrExhausted = errors.New("identifier source exhausted")

// Source reserves contiguous identifier ranges from the durable store.
// One call returns the first reserved value and the count of reserved values.
type Source interface {
	NextRange(ctx context.Context) (start int64, count int64, err error)
}

// Allocator hands out globally unique, monotonically increasing integer
// identifiers from an in-memory pool. The pool is refilled from the Source in
// large ranges, amortizing store round trips. Identifiers are never reclaimed:
// ranges consumed for entities that are later discarded simply leave gaps.
type Allocator struct {
	mu   sync.Mutex
	pool []int64
	src  Source
	log  *zap.Logger
}

// New creates an Allocator backed by the given source.
func New(src Source, log *zap.Logger) *Allocator {
	return &Allocator{src: src, log: log}
}

// NextID returns one identifier, refilling the pool first if it is empty.
func (a *Allocator) NextID(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pool) == 0 {
		a.log.Info("id pool empty, reserving new range")
		if err := a.refill(ctx); err != nil {
			return 0, err
		}
	}
	id := a.pool[0]
	a.pool = a.pool[1:]
	return id, nil
}

// NextIDs returns n identifiers in issuance order, refilling as many times as
// needed. On a refill failure nothing is consumed from the pool.
func (a *Allocator) NextIDs(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for len(a.pool) < n {
		if err := a.refill(ctx); err != nil {
			return nil, err
		}
	}
	ids := make([]int64, n)
	copy(ids, a.pool[:n])
	a.pool = a.pool[n:]
	return ids, nil
}

// Pooled returns the number of identifiers currently held in the pool.
func (a *Allocator) Pooled() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pool)
}

// refill reserves one contiguous range and appends it to the pool.
// Callers must hold a.mu.
func (a *Allocator) refill(ctx context.Context) error {
	start, count, err := a.src.NextRange(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExhausted, err)
	}
	a.log.Debug("reserved id range",
		zap.Int64("start", start),
		zap.Int64("end", start+count))
	for v := start; v < start+count; v++ {
		a.pool = append(a.pool, v)
	}
	return nil
}
