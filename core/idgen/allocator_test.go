package idgen

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource hands out contiguous ranges of a fixed size, counting calls.
type fakeSource struct {
	mu    sync.Mutex
	next  int64
	size  int64
	calls int
	fail  bool
}

func (s *fakeSource) NextRange(ctx context.Context) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, 0, fmt.Errorf("sequence unreachable")
	}
	s.calls++
	start := s.next
	s.next += s.size
	return start, s.size, nil
}

func TestAllocator_NextID(t *testing.T) {
	src := &fakeSource{next: 100, size: 5}
	a := New(src, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		id, err := a.NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100+i), id)
	}
	assert.Equal(t, 1, src.calls)

	// Sixth call drains into a second range.
	id, err := a.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(105), id)
	assert.Equal(t, 2, src.calls)
}

func TestAllocator_NextIDs_MultipleRefills(t *testing.T) {
	src := &fakeSource{next: 1, size: 4}
	a := New(src, zap.NewNop())

	ids, err := a.NextIDs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, ids, 10)
	assert.Equal(t, 3, src.calls)

	for i := 1; i < len(ids); i++ {
		assert.Equal(t, ids[i-1]+1, ids[i])
	}
	assert.Equal(t, int64(1), ids[0])
	// Two values from the third range remain pooled.
	assert.Equal(t, 2, a.Pooled())
}

func TestAllocator_RefillFailure(t *testing.T) {
	src := &fakeSource{next: 1, size: 3}
	a := New(src, zap.NewNop())
	ctx := context.Background()

	ids, err := a.NextIDs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	src.fail = true

	// Pool holds one ID; requesting two must fail without consuming it.
	_, err = a.NextIDs(ctx, 2)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, a.Pooled())

	// The pooled ID is still valid and unique.
	id, err := a.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	_, err = a.NextID(ctx)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestAllocator_ConcurrentUniqueness(t *testing.T) {
	src := &fakeSource{next: 1, size: 16}
	a := New(src, zap.NewNop())

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	results := make([][]int64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if i%10 == 0 {
					ids, err := a.NextIDs(context.Background(), 3)
					assert.NoError(t, err)
					results[w] = append(results[w], ids...)
					continue
				}
				id, err := a.NextID(context.Background())
				assert.NoError(t, err)
				results[w] = append(results[w], id)
			}
		}(w)
	}
	wg.Wait()

	var all []int64
	for _, r := range results {
		all = append(all, r...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i := 1; i < len(all); i++ {
		assert.NotEqual(t, all[i-1], all[i], "duplicate identifier issued")
	}
}
