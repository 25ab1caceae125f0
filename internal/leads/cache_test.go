// ABOUTME: Tests for per-session dataset memoization.
// ABOUTME: Covers hits, concurrent first requests, snapshot restore and session resets.

package leads

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memorySnapshots is an in-memory Snapshotter.
type memorySnapshots struct {
	mu      sync.Mutex
	saved   map[Key]*Dataset
	loadErr error
	saveErr error
	saves   int
	deleted []Key
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{saved: make(map[Key]*Dataset)}
}

func (m *memorySnapshots) LoadDataset(_ context.Context, key Key) (*Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	ds, ok := m.saved[key]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

func (m *memorySnapshots) SaveDataset(_ context.Context, ds *Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[ds.Key()] = ds
	return nil
}

func (m *memorySnapshots) DeleteDataset(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, key)
	m.deleted = append(m.deleted, key)
	return nil
}

type eventCounter struct {
	hits, restored, generated, evicted atomic.Int64
}

func (e *eventCounter) record(ev CacheEvent) {
	switch ev {
	case EventHit:
		e.hits.Add(1)
	case EventRestored:
		e.restored.Add(1)
	case EventGenerated:
		e.generated.Add(1)
	case EventEvicted:
		e.evicted.Add(1)
	}
}

func TestCache_SecondGetIsHit(t *testing.T) {
	var events eventCounter
	c := NewCache(newStubNamer(), CacheOptions{OnEvent: events.record})
	key := Key{Session: "s1", Seed: 42, Count: 20}

	first, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), key)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 20, first.Len())
	assert.Equal(t, int64(1), events.generated.Load())
	assert.Equal(t, int64(1), events.hits.Load())
}

func TestCache_ConcurrentFirstRequestsGenerateOnce(t *testing.T) {
	var events eventCounter
	c := NewCache(newStubNamer(), CacheOptions{OnEvent: events.record})
	key := Key{Session: "s1", Seed: 7, Count: 500}

	const callers = 32
	results := make([]*Dataset, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := c.Get(context.Background(), key)
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), events.generated.Load())
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
	assert.Equal(t, 1, c.Len())
}

func TestCache_KeysAreIndependent(t *testing.T) {
	c := NewCache(newStubNamer(), CacheOptions{})
	ctx := context.Background()

	a, err := c.Get(ctx, Key{Session: "s1", Seed: 1, Count: 10})
	require.NoError(t, err)
	b, err := c.Get(ctx, Key{Session: "s2", Seed: 1, Count: 10})
	require.NoError(t, err)
	other, err := c.Get(ctx, Key{Session: "s1", Seed: 2, Count: 10})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, a.Records(), b.Records(), "same seed and count generate the same records")
	assert.NotEqual(t, a.Records(), other.Records())
	assert.Equal(t, 3, c.Len())
}

func TestCache_InvalidCount(t *testing.T) {
	c := NewCache(newStubNamer(), CacheOptions{})
	_, err := c.Get(context.Background(), Key{Session: "s", Seed: 1, Count: -5})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, 0, c.Len())
}

func TestCache_RestoresFromSnapshot(t *testing.T) {
	snaps := newMemorySnapshots()
	key := Key{Session: "s1", Seed: 3, Count: 5}

	var events eventCounter
	first := NewCache(newStubNamer(), CacheOptions{Snapshots: snaps, OnEvent: events.record})
	generated, err := first.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, snaps.saves)

	second := NewCache(newStubNamer(), CacheOptions{Snapshots: snaps, OnEvent: events.record})
	restored, err := second.Get(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, generated.Records(), restored.Records())
	assert.Equal(t, int64(1), events.generated.Load())
	assert.Equal(t, int64(1), events.restored.Load())
	assert.Equal(t, 1, snaps.saves, "restored datasets are not saved again")
}

func TestCache_SnapshotFailuresFallBackToGeneration(t *testing.T) {
	snaps := newMemorySnapshots()
	snaps.loadErr = errors.New("disk on fire")
	snaps.saveErr = errors.New("disk still on fire")

	var events eventCounter
	c := NewCache(newStubNamer(), CacheOptions{Snapshots: snaps, OnEvent: events.record})
	ds, err := c.Get(context.Background(), Key{Session: "s1", Seed: 3, Count: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, int64(1), events.generated.Load())
}

func TestCache_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCache(newStubNamer(), CacheOptions{})
	_, err := c.Get(ctx, Key{Session: "s", Seed: 1, Count: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Len())
}

// gatedNamer blocks the first name draw until released.
type gatedNamer struct {
	*stubNamer
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatedNamer() *gatedNamer {
	return &gatedNamer{
		stubNamer: newStubNamer(),
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (g *gatedNamer) FullName(r *rand.Rand) string {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	return g.stubNamer.FullName(r)
}

func TestCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	namer := newGatedNamer()
	var events eventCounter
	c := NewCache(namer, CacheOptions{OnEvent: events.record})
	key := Key{Session: "s1", Seed: 5, Count: 20}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(firstCtx, key)
		firstErr <- err
	}()
	<-namer.started

	type result struct {
		ds  *Dataset
		err error
	}
	second := make(chan result, 1)
	go func() {
		ds, err := c.Get(context.Background(), key)
		second <- result{ds, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(namer.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 20, res.ds.Len())
	assert.Equal(t, int64(1), events.generated.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsOldestPerSession(t *testing.T) {
	snaps := newMemorySnapshots()
	var events eventCounter
	c := NewCache(newStubNamer(), CacheOptions{Snapshots: snaps, OnEvent: events.record, MaxPerSession: 3})
	ctx := context.Background()

	for seed := int64(1); seed <= 5; seed++ {
		_, err := c.Get(ctx, Key{Session: "s1", Seed: seed, Count: 4})
		require.NoError(t, err)
	}
	_, err := c.Get(ctx, Key{Session: "s2", Seed: 1, Count: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, c.Len(), "three for s1 and one for s2")
	assert.Equal(t, int64(2), events.evicted.Load())
	assert.Equal(t, []Key{{Session: "s1", Seed: 1, Count: 4}, {Session: "s1", Seed: 2, Count: 4}}, snaps.deleted)
	assert.Len(t, snaps.saved, 4)

	// The newest datasets are still memoized.
	before := events.generated.Load()
	_, err = c.Get(ctx, Key{Session: "s1", Seed: 5, Count: 4})
	require.NoError(t, err)
	assert.Equal(t, before, events.generated.Load())

	// An evicted dataset is regenerated, evicting the next oldest.
	_, err = c.Get(ctx, Key{Session: "s1", Seed: 1, Count: 4})
	require.NoError(t, err)
	assert.Equal(t, before+1, events.generated.Load())
	assert.Equal(t, int64(3), events.evicted.Load())
	assert.Equal(t, 4, c.Len())
}

func TestCache_DefaultSessionBound(t *testing.T) {
	c := NewCache(newStubNamer(), CacheOptions{})
	ctx := context.Background()
	for seed := int64(0); seed < 3*DefaultMaxPerSession; seed++ {
		_, err := c.Get(ctx, Key{Session: "s1", Seed: seed, Count: 2})
		require.NoError(t, err)
	}
	assert.Equal(t, DefaultMaxPerSession, c.Len())
}

func TestCache_RejectsOversizedCount(t *testing.T) {
	c := NewCache(newStubNamer(), CacheOptions{})
	_, err := c.Get(context.Background(), Key{Session: "s", Seed: 1, Count: MaxCount + 1})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Forget(t *testing.T) {
	c := NewCache(newStubNamer(), CacheOptions{})
	ctx := context.Background()
	for _, key := range []Key{
		{Session: "s1", Seed: 1, Count: 3},
		{Session: "s1", Seed: 2, Count: 3},
		{Session: "s2", Seed: 1, Count: 3},
	} {
		_, err := c.Get(ctx, key)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Forget("s1"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Forget("missing"))
	assert.Equal(t, 1, c.Forget(""))
	assert.Equal(t, 0, c.Len())
}

func TestSessionLabel(t *testing.T) {
	assert.Equal(t, "abcdefgh", sessionLabel("abcdefghijkl"))
	assert.Equal(t, "short", sessionLabel(" short "))
}
