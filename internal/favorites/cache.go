// Package favorites caches the signed-in user's favorited listing ids.
package favorites

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Backend is the remote favorites store.
type Backend interface {
	ListFavorites(ctx context.Context) ([]int64, error)
	AddFavorite(ctx context.Context, listingID int64) error
	RemoveFavorite(ctx context.Context, listingID int64) error
}

// Cache holds the favorite set. Concurrent Loads share a single fetch.
type Cache struct {
	backend Backend
	log     *zerolog.Logger
	group   singleflight.Group

	mu     sync.Mutex
	ids    map[int64]struct{}
	loaded bool
	gen    uint64
}

// New returns an empty cache over backend.
func New(backend Backend, logger *zerolog.Logger) *Cache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Cache{backend: backend, log: logger, ids: make(map[int64]struct{})}
}

// Load returns the favorite ids, fetching them once if the cache is cold.
// A caller giving up does not cancel the fetch for the others.
func (c *Cache) Load(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	if c.loaded {
		ids := c.sortedLocked()
		c.mu.Unlock()
		return ids, nil
	}
	gen := c.gen
	c.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey(gen), func() (any, error) {
		c.log.Debug().Uint64("generation", gen).Msg("fetching favorites")
		return c.backend.ListFavorites(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("load favorites: %w", res.Err)
		}
		fetched, _ := res.Val.([]int64)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			// invalidated mid-flight; hand back what was fetched without caching it
			return slices.Clone(fetched), nil
		}
		if !c.loaded {
			c.ids = make(map[int64]struct{}, len(fetched))
			for _, id := range fetched {
				c.ids[id] = struct{}{}
			}
			c.loaded = true
		}
		return c.sortedLocked(), nil
	}
}

// Invalidate drops the cached set and detaches any fetch in flight.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

// Has reports whether listingID is a cached favorite.
func (c *Cache) Has(listingID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[listingID]
	return ok
}

// Loaded reports whether the cache holds a fetched set.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Add favorites a listing, patching the cache first and undoing the patch if the backend refuses.
func (c *Cache) Add(ctx context.Context, listingID int64) error {
	return c.mutate(ctx, listingID, true)
}

// Remove unfavorites a listing with the same rollback behavior as Add.
func (c *Cache) Remove(ctx context.Context, listingID int64) error {
	return c.mutate(ctx, listingID, false)
}

// Toggle flips the favorite state of a listing and returns the new state.
func (c *Cache) Toggle(ctx context.Context, listingID int64) (bool, error) {
	if c.Has(listingID) {
		return false, c.Remove(ctx, listingID)
	}
	return true, c.Add(ctx, listingID)
}

func (c *Cache) mutate(ctx context.Context, listingID int64, add bool) error {
	c.mu.Lock()
	_, had := c.ids[listingID]
	if c.loaded {
		c.apply(listingID, add)
	} else {
		c.invalidateLocked()
	}
	gen := c.gen
	c.mu.Unlock()

	var err error
	if add {
		err = c.backend.AddFavorite(ctx, listingID)
	} else {
		err = c.backend.RemoveFavorite(ctx, listingID)
	}
	if err == nil {
		return nil
	}

	c.mu.Lock()
	if c.loaded && c.gen == gen {
		c.apply(listingID, had)
	}
	c.mu.Unlock()
	c.log.Warn().Err(err).Int64("listing_id", listingID).Bool("add", add).Msg("favorite change rolled back")
	return fmt.Errorf("update favorite %d: %w", listingID, err)
}

func (c *Cache) apply(listingID int64, present bool) {
	if present {
		c.ids[listingID] = struct{}{}
	} else {
		delete(c.ids, listingID)
	}
}

func (c *Cache) invalidateLocked() {
	c.group.Forget(flightKey(c.gen))
	c.gen++
	c.ids = make(map[int64]struct{})
	c.loaded = false
}

func (c *Cache) sortedLocked() []int64 {
	out := make([]int64, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func flightKey(gen uint64) string {
	return "favorites:" + strconv.FormatUint(gen, 10)
}
