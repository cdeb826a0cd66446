// Package identity allocates collision-free applicant identifiers for one
// batch of ingestion work.
//
// State is explicitly batch-scoped: callers construct a Batch at batch start
// and pass it through the repair pipeline. There is no package-level set, so
// two concurrent batches cannot see each other's in-flight identifiers (the
// store's primary-key constraint is the cross-batch backstop).
package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"intake/internal/schema"
)

// firstID is issued when neither the store nor the batch has any identifier.
const firstID = 101

// IDSource lists applicant identifiers already present in the durable store.
// storage.Store satisfies this.
type IDSource interface {
	ApplicantIDs(ctx context.Context) ([]string, error)
}

// Batch tracks every identifier observed or allocated during one batch.
//
// Concurrency:
//   - All methods are safe for concurrent use; Register/Next serialize on an
//     internal mutex. Without that, concurrent repair workers could be issued
//     duplicate identifiers.
type Batch struct {
	mu   sync.Mutex
	used map[int]struct{}
	max  int
}

// NewBatch returns an empty batch identifier set.
func NewBatch() *Batch {
	return &Batch{used: make(map[int]struct{})}
}

// Seed registers every format-valid identifier currently in the store.
//
// Errors:
//   - A store read failure is recoverable: the batch degrades to batch-local
//     knowledge only. The error is returned so the caller can log the
//     degradation, but the Batch remains fully usable.
func (b *Batch) Seed(ctx context.Context, src IDSource) error {
	if src == nil {
		return nil
	}
	ids, err := src.ApplicantIDs(ctx)
	if err != nil {
		return fmt.Errorf("seed applicant ids: %w", err)
	}
	for _, id := range ids {
		b.Register(id)
	}
	return nil
}

// Register records an identifier so Next never re-issues it within this
// batch. Values that do not match the A<integer> format are ignored.
func (b *Batch) Register(id string) {
	n, ok := parseID(id)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used[n] = struct{}{}
	if n > b.max {
		b.max = n
	}
}

// Next allocates a fresh identifier.
//
// It is monotonic: the numeric suffix always exceeds the maximum previously
// seen, starting at 101 when nothing has been seen. An allocated number is
// never reused within the batch, even if the row it was issued for is later
// discarded.
func (b *Batch) Next() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := firstID
	if b.max >= firstID || len(b.used) > 0 {
		n = b.max + 1
	}
	for {
		if _, taken := b.used[n]; !taken {
			break
		}
		n++
	}
	b.used[n] = struct{}{}
	if n > b.max {
		b.max = n
	}
	return "A" + strconv.Itoa(n)
}

// Len reports how many identifiers the batch has seen. Mostly useful in logs.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.used)
}

func parseID(id string) (int, bool) {
	id = strings.TrimSpace(id)
	if !schema.ValidID(id) {
		return 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
