package folder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reelpipe/uplink/internal/category"
	"github.com/reelpipe/uplink/internal/remote"
)

// countingStore is a remote.Store that only implements folder resolution.
type countingStore struct {
	calls atomic.Int64
	err   error
	// slow makes concurrent callers overlap inside GetOrCreateFolder.
	gate chan struct{}
}

func (s *countingStore) GetOrCreateFolder(ctx context.Context, segments []string) (string, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return "", s.err
	}
	return strings.Join(segments, "/") + "/", nil
}

func (s *countingStore) Upload(ctx context.Context, src remote.Source, folderID, displayName string, onProgress remote.ProgressFunc) (*remote.Object, error) {
	return nil, errors.New("not implemented")
}
func (s *countingStore) Delete(ctx context.Context, remoteID string) error { return nil }
func (s *countingStore) Exists(ctx context.Context, remoteID string) (bool, error) {
	return false, nil
}

func TestResolveCachesPerProjectAndGroup(t *testing.T) {
	store := &countingStore{}
	r := NewResolver(store)
	ctx := context.Background()

	id1, err := r.Resolve(ctx, "P-1", category.GroupFootage)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id1 != "P-1/Footage/" {
		t.Errorf("got %q", id1)
	}

	id2, err := r.Resolve(ctx, "P-1", category.GroupFootage)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id2 != id1 {
		t.Errorf("cache miss: %q vs %q", id2, id1)
	}
	if n := store.calls.Load(); n != 1 {
		t.Errorf("expected 1 remote call, got %d", n)
	}

	// A different group is a separate folder and only that folder is
	// materialized.
	if _, err := r.Resolve(ctx, "P-1", category.GroupAudio); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if n := store.calls.Load(); n != 2 {
		t.Errorf("expected 2 remote calls, got %d", n)
	}

	if _, ok := r.Cached("P-1", category.GroupAudio); !ok {
		t.Error("audio folder should be cached")
	}
	if _, ok := r.Cached("P-2", category.GroupFootage); ok {
		t.Error("other project must not be cached")
	}
}

func TestResolveCollapsesConcurrentMisses(t *testing.T) {
	store := &countingStore{gate: make(chan struct{})}
	r := NewResolver(store)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), "P-1", category.GroupFootage)
		}(i)
	}

	close(store.gate)
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("worker %d got %q, want %q", i, results[i], results[0])
		}
	}
	if n := store.calls.Load(); n != 1 {
		t.Errorf("expected a single collapsed remote call, got %d", n)
	}
}

func TestResolveFailureIsNotCached(t *testing.T) {
	store := &countingStore{err: errors.New("remote down")}
	r := NewResolver(store)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, "P-1", category.GroupFootage); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := r.Cached("P-1", category.GroupFootage); ok {
		t.Error("failure must leave no cache entry")
	}

	store.err = nil
	id, err := r.Resolve(ctx, "P-1", category.GroupFootage)
	if err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if id != "P-1/Footage/" {
		t.Errorf("got %q", id)
	}
	if n := store.calls.Load(); n != 2 {
		t.Errorf("expected 2 remote calls, got %d", n)
	}
}
