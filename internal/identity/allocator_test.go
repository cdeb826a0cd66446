package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeIDSource struct {
	ids []string
	err error
}

func (f *fakeIDSource) ApplicantIDs(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

func TestNextStartsAt101(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	if got := b.Next(); got != "A101" {
		t.Fatalf("first id = %q, want A101", got)
	}
	if got := b.Next(); got != "A102" {
		t.Fatalf("second id = %q, want A102", got)
	}
}

func TestNextNeverRepeatsWithinBatch(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := b.Next()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNextExceedsSeededAndRegistered(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	if err := b.Seed(context.Background(), &fakeIDSource{ids: []string{"A101", "A105"}}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	b.Register("A106")

	if got := b.Next(); got != "A107" {
		t.Fatalf("Next = %q, want A107", got)
	}
}

func TestRegisterIgnoresMalformedIDs(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	b.Register("105")
	b.Register("Axyz")
	b.Register(" ")
	if got := b.Next(); got != "A101" {
		t.Fatalf("Next = %q, want A101 after malformed registrations", got)
	}
}

func TestSeedFailureDegradesToBatchLocal(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	err := b.Seed(context.Background(), &fakeIDSource{err: errors.New("store down")})
	if err == nil {
		t.Fatal("Seed should surface the read error for logging")
	}
	// Allocation still works from batch-local knowledge.
	if got := b.Next(); got != "A101" {
		t.Fatalf("Next = %q, want A101", got)
	}
}

func TestConcurrentAllocationIsCollisionFree(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	const workers = 8
	const perWorker = 100

	var mu sync.Mutex
	seen := map[string]bool{}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := b.Next()
				mu.Lock()
				dup := seen[id]
				seen[id] = true
				mu.Unlock()
				if dup {
					t.Errorf("duplicate id %q under concurrency", id)
					return
				}
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("allocated %d unique ids, want %d", len(seen), workers*perWorker)
	}
}
