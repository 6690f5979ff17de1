// Package folder resolves remote destination folders for uploads. Resolution
// is idempotent and cached: the first request for a (project, group) pair
// performs the remote create-or-get, later requests hit the cache, and
// concurrent first requests are collapsed into a single remote call.
package folder

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/reelpipe/uplink/internal/category"
	"github.com/reelpipe/uplink/internal/remote"
)

// Resolver caches resolved folder IDs for the life of the process. The
// remote provider is assumed not to delete folders out-of-band, so entries
// are never invalidated; losing the cache only costs one extra idempotent
// remote call.
type Resolver struct {
	store remote.Store

	mu    sync.RWMutex
	cache map[cacheKey]string

	sf singleflight.Group
}

type cacheKey struct {
	projectID string
	group     category.Group
}

// NewResolver creates a Resolver over the given remote store.
func NewResolver(store remote.Store) *Resolver {
	return &Resolver{
		store: store,
		cache: make(map[cacheKey]string),
	}
}

// Resolve returns the remote folder ID for (projectID, group), creating the
// folder if absent. Only the requested group's folder is created; sibling
// groups are never eagerly materialized. A failed resolution leaves no
// cache entry, so retrying is safe.
func (r *Resolver) Resolve(ctx context.Context, projectID string, group category.Group) (string, error) {
	key := cacheKey{projectID: projectID, group: group}

	r.mu.RLock()
	id, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	// Collapse concurrent misses for the same key into one remote call.
	sfKey := projectID + "/" + string(group)
	v, err, _ := r.sf.Do(sfKey, func() (any, error) {
		r.mu.RLock()
		id, ok := r.cache[key]
		r.mu.RUnlock()
		if ok {
			return id, nil
		}

		folderID, err := r.store.GetOrCreateFolder(ctx, []string{projectID, string(group)})
		if err != nil {
			return "", fmt.Errorf("resolve folder %s/%s: %w", projectID, group, err)
		}

		r.mu.Lock()
		r.cache[key] = folderID
		r.mu.Unlock()
		return folderID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Cached returns the cached folder ID for (projectID, group) if present.
func (r *Resolver) Cached(projectID string, group category.Group) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.cache[cacheKey{projectID: projectID, group: group}]
	return id, ok
}
