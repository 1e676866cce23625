// Package catalog keeps the in-memory listing snapshot that filtering and
// ranking run against. The snapshot is only ever replaced wholesale.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"rental_bot/internal/model"
)

// MinRefLength is the shortest listing ID prefix Lookup accepts.
const MinRefLength = 4

// Lookup errors.
var (
	ErrNoListing    = errors.New("listing not found")
	ErrAmbiguousRef = errors.New("listing reference is ambiguous")
	ErrRefTooShort  = fmt.Errorf("listing reference must be at least %d characters", MinRefLength)
)

// Source is the listing store the catalog refreshes from.
type Source interface {
	ListListings(ctx context.Context) ([]model.Listing, error)
	ListingsRevision(ctx context.Context) (int64, error)
}

// Catalog holds the latest fetched listing set.
type Catalog struct {
	src Source

	mu       sync.RWMutex
	listings []model.Listing
	revision int64
	loaded   bool
}

// New creates an empty Catalog. Call Refresh before use.
func New(src Source) *Catalog {
	return &Catalog{src: src}
}

// Refresh refetches every listing and replaces the snapshot.
// On error the previous snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	// Read the revision first so a concurrent write is picked up next time.
	rev, err := c.src.ListingsRevision(ctx)
	if err != nil {
		return fmt.Errorf("read revision: %w", err)
	}
	listings, err := c.src.ListListings(ctx)
	if err != nil {
		return fmt.Errorf("fetch listings: %w", err)
	}

	c.mu.Lock()
	c.listings = listings
	c.revision = rev
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Stale reports whether the store has changed since the last refresh.
func (c *Catalog) Stale(ctx context.Context) (bool, error) {
	rev, err := c.src.ListingsRevision(ctx)
	if err != nil {
		return false, fmt.Errorf("read revision: %w", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded || rev != c.revision, nil
}

// Revision returns the store revision of the current snapshot.
func (c *Catalog) Revision() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// Listings returns a copy of the current snapshot.
func (c *Catalog) Listings() []model.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Listing, len(c.listings))
	copy(out, c.listings)
	return out
}

// ByIDs returns the snapshot listings whose IDs are in ids, in snapshot
// order. Unknown IDs are skipped.
func (c *Catalog) ByIDs(ids []string) []model.Listing {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Listing
	for _, l := range c.listings {
		if _, ok := want[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Lookup finds a listing by full ID or by a unique ID prefix.
func (c *Catalog) Lookup(ref string) (model.Listing, error) {
	ref = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ref), "#"))
	if len(ref) < MinRefLength {
		return model.Listing{}, ErrRefTooShort
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var found []model.Listing
	for _, l := range c.listings {
		if l.ID == ref {
			return l, nil
		}
		if strings.HasPrefix(l.ID, ref) {
			found = append(found, l)
		}
	}
	switch len(found) {
	case 0:
		return model.Listing{}, ErrNoListing
	case 1:
		return found[0], nil
	default:
		return model.Listing{}, ErrAmbiguousRef
	}
}
