// ABOUTME: Per-session memoization of generated datasets.
// ABOUTME: Collapses concurrent first requests so a key is only ever generated once.

package leads

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Snapshotter persists datasets across process restarts.
type Snapshotter interface {
	LoadDataset(ctx context.Context, key Key) (*Dataset, error)
	SaveDataset(ctx context.Context, ds *Dataset) error
	DeleteDataset(ctx context.Context, key Key) error
}

// CacheEvent names what happened on a cache lookup.
type CacheEvent string

const (
	EventHit       CacheEvent = "hit"
	EventRestored  CacheEvent = "restored"
	EventGenerated CacheEvent = "generated"
	EventEvicted   CacheEvent = "evicted"
)

// DefaultMaxPerSession is how many datasets one session keeps before the
// oldest is evicted.
const DefaultMaxPerSession = 8

// CacheOptions configures a Cache. All fields are optional.
type CacheOptions struct {
	Snapshots     Snapshotter
	Logger        *zap.Logger
	OnEvent       func(CacheEvent)
	Now           func() time.Time
	MaxPerSession int
}

// Cache memoizes datasets by Key. It is safe for concurrent use.
type Cache struct {
	namer         Namer
	snaps         Snapshotter
	logger        *zap.Logger
	onEvent       func(CacheEvent)
	now           func() time.Time
	maxPerSession int

	mu       sync.RWMutex
	datasets map[Key]*Dataset
	order    map[string][]Key // per session, oldest first
	group    singleflight.Group
}

// NewCache builds a cache that generates missing datasets with namer.
func NewCache(namer Namer, opts CacheOptions) *Cache {
	c := &Cache{
		namer:         namer,
		snaps:         opts.Snapshots,
		logger:        opts.Logger,
		onEvent:       opts.OnEvent,
		now:           opts.Now,
		maxPerSession: opts.MaxPerSession,
		datasets:      make(map[Key]*Dataset),
		order:         make(map[string][]Key),
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.onEvent == nil {
		c.onEvent = func(CacheEvent) {}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.maxPerSession <= 0 {
		c.maxPerSession = DefaultMaxPerSession
	}
	return c
}

// Get returns the dataset for key, generating it on first use.
//
// The shared load runs detached from any one caller's cancellation, so a
// caller that gives up only abandons its own wait.
func (c *Cache) Get(ctx context.Context, key Key) (*Dataset, error) {
	if err := (Config{Count: key.Count, Seed: key.Seed}).Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ds, ok := c.lookup(key); ok {
		c.onEvent(EventHit)
		return ds, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		// Another caller may have stored it between lookup and DoChan.
		if ds, ok := c.lookup(key); ok {
			c.onEvent(EventHit)
			return ds, nil
		}
		return c.load(loadCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// load restores or generates key and memoizes it.
func (c *Cache) load(ctx context.Context, key Key) (*Dataset, error) {
	ds, err := c.restore(ctx, key)
	if err != nil {
		return nil, err
	}
	if ds != nil {
		c.onEvent(EventRestored)
	} else {
		ds, err = c.generate(ctx, key)
		if err != nil {
			return nil, err
		}
		c.onEvent(EventGenerated)
	}

	for _, old := range c.store(key, ds) {
		c.onEvent(EventEvicted)
		if c.snaps == nil {
			continue
		}
		if err := c.snaps.DeleteDataset(ctx, old); err != nil {
			c.logger.Warn("deleting evicted dataset snapshot failed", zap.String("key", old.String()), zap.Error(err))
		}
	}
	return ds, nil
}

// store memoizes ds and returns the keys evicted to keep the session within bounds.
func (c *Cache) store(key Key, ds *Dataset) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.datasets[key] = ds
	keys := append(c.order[key.Session], key)

	var evicted []Key
	for len(keys) > c.maxPerSession {
		evicted = append(evicted, keys[0])
		delete(c.datasets, keys[0])
		keys = keys[1:]
	}
	c.order[key.Session] = keys
	return evicted
}

// Forget drops every memoized dataset of session and returns how many were dropped.
// An empty session drops everything.
func (c *Cache) Forget(session string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key := range c.datasets {
		if session == "" || key.Session == session {
			delete(c.datasets, key)
			dropped++
		}
	}
	if session == "" {
		c.order = make(map[string][]Key)
	} else {
		delete(c.order, session)
	}
	return dropped
}

// Len returns the number of memoized datasets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.datasets)
}

func (c *Cache) lookup(key Key) (*Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.datasets[key]
	return ds, ok
}

// restore returns nil, nil when there is no usable snapshot.
func (c *Cache) restore(ctx context.Context, key Key) (*Dataset, error) {
	if c.snaps == nil {
		return nil, nil
	}
	ds, err := c.snaps.LoadDataset(ctx, key)
	switch {
	case err == nil:
		return ds, nil
	case errors.Is(err, ErrDatasetNotFound):
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		c.logger.Warn("loading dataset snapshot failed", zap.String("key", key.String()), zap.Error(err))
		return nil, nil
	}
}

func (c *Cache) generate(ctx context.Context, key Key) (*Dataset, error) {
	start := c.now()
	records, err := NewGenerator(Config{Count: key.Count, Seed: key.Seed}, c.namer).Generate(ctx)
	if err != nil {
		return nil, err
	}
	ds := NewDataset(key, start, records)

	c.logger.Info("generated dataset",
		zap.String("session", sessionLabel(key.Session)),
		zap.Int64("seed", key.Seed),
		zap.Int("count", key.Count),
		zap.Duration("took", c.now().Sub(start)))

	if c.snaps != nil {
		if err := c.snaps.SaveDataset(ctx, ds); err != nil {
			c.logger.Warn("saving dataset snapshot failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return ds, nil
}

// sessionLabel shortens session ids for log lines.
func sessionLabel(session string) string {
	session = strings.TrimSpace(session)
	if len(session) > 8 {
		return session[:8]
	}
	return session
}
