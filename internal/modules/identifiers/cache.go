package identifiers

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultFreshness is how long a snapshot is trusted before a lookup forces a rebuild
const DefaultFreshness = 24 * time.Hour

const rebuildKey = "registry"

// Source fetches the full ticker registry in one request
type Source interface {
	FetchRegistry(ctx context.Context) ([]domain.RegistryEntry, error)
}

// Options configures a Cache
type Options struct {
	Freshness time.Duration
	Now       func() time.Time
}

// Cache resolves symbols against the live snapshot.
//
// The snapshot pointer is the only shared state. Rebuilds run through a singleflight
// group so concurrent stale lookups share one registry fetch, and the finished snapshot
// is published with a single atomic store.
type Cache struct {
	source    Source
	store     Store
	freshness time.Duration
	now       func() time.Time
	log       zerolog.Logger

	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	group   singleflight.Group
}

// New creates an empty cache. Call Warm before serving lookups.
func New(source Source, store Store, opts Options, log zerolog.Logger) *Cache {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		source:    source,
		store:     store,
		freshness: opts.Freshness,
		now:       opts.Now,
		log:       log.With().Str("component", "identifier_cache").Logger(),
	}
}

// Warm loads the persisted snapshot and rebuilds it synchronously when it is missing or stale.
// It returns an error only when the rebuild failed and no snapshot is available at all;
// lookups will then retry the rebuild.
func (c *Cache) Warm(ctx context.Context) error {
	if c.store != nil {
		rec, err := c.store.Load()
		if err != nil {
			c.log.Warn().Err(err).Msg("Ignoring unreadable persisted snapshot")
		} else if rec != nil {
			snap := snapshotFromRecord(rec, c.version.Add(1))
			c.current.Store(snap)
			c.log.Info().
				Int("entries", snap.Len()).
				Time("retrieved_at", snap.RetrievedAt()).
				Msg("Loaded persisted registry snapshot")
		}
	}

	_, err := c.fresh(ctx)
	return err
}

// Resolve returns the registry entry for symbol, matching case-insensitively.
// Unknown symbols yield domain.ErrUnknownSymbol; there is no fuzzy matching.
func (c *Cache) Resolve(ctx context.Context, symbol string) (domain.RegistryEntry, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if key == "" {
		return domain.RegistryEntry{}, fmt.Errorf("%w: empty symbol", domain.ErrUnknownSymbol)
	}

	snap, err := c.fresh(ctx)
	if err != nil {
		return domain.RegistryEntry{}, err
	}

	entry, ok := snap.Lookup(key)
	if !ok {
		return domain.RegistryEntry{}, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, key)
	}
	return entry, nil
}

// Refresh forces a rebuild regardless of freshness
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do(rebuildKey, func() (interface{}, error) {
		return c.rebuild(ctx)
	})
	return err
}

// Current returns the live snapshot, or nil before the first successful load
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Freshness returns the configured freshness window
func (c *Cache) Freshness() time.Duration {
	return c.freshness
}

// fresh returns a snapshot that satisfies the freshness window, rebuilding first if needed.
// A failed rebuild falls back to the stale snapshot when there is one.
func (c *Cache) fresh(ctx context.Context) (*Snapshot, error) {
	snap := c.current.Load()
	if snap != nil && snap.FreshAt(c.now(), c.freshness) {
		return snap, nil
	}

	v, err, shared := c.group.Do(rebuildKey, func() (interface{}, error) {
		// Another caller may have finished a rebuild between our check and this call
		if cur := c.current.Load(); cur != nil && cur.FreshAt(c.now(), c.freshness) {
			return cur, nil
		}
		return c.rebuild(ctx)
	})
	if err == nil {
		if shared {
			c.log.Debug().Msg("Joined in-flight registry rebuild")
		}
		return v.(*Snapshot), nil
	}

	if stale := c.current.Load(); stale != nil {
		c.log.Warn().
			Err(err).
			Dur("age", stale.Age(c.now())).
			Uint64("version", stale.Version()).
			Msg("Registry rebuild failed, serving stale snapshot")
		return stale, nil
	}

	return nil, fmt.Errorf("no registry snapshot available: %w", err)
}

// rebuild fetches the registry, persists the new snapshot and publishes it.
// It runs detached from the caller's cancellation since other lookups may be waiting on it.
func (c *Cache) rebuild(ctx context.Context) (*Snapshot, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	entries, err := c.source.FetchRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry rebuild: %w", err)
	}

	snap := newSnapshot(entries, c.now(), c.version.Add(1))
	if snap.Len() == 0 {
		return nil, fmt.Errorf("registry rebuild: %w: no usable entries", domain.ErrMalformedSource)
	}

	if c.store != nil {
		if err := c.store.Save(snap.record()); err != nil {
			c.log.Warn().Err(err).Msg("Failed to persist registry snapshot")
		}
	}

	c.current.Store(snap)

	c.log.Info().
		Int("entries", snap.Len()).
		Uint64("version", snap.Version()).
		Dur("duration", time.Since(start)).
		Msg("Registry snapshot rebuilt")

	return snap, nil
}
