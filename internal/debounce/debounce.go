// Package debounce coalesces bursts of requests that share a key.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Debouncer lets only the last call per key inside a quiet window proceed.
type Debouncer struct {
	wait time.Duration

	mu   sync.Mutex
	gens map[string]uint64
}

func New(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait, gens: make(map[string]uint64)}
}

// Settle waits for the quiet window and reports whether this call is still
// the latest for key. Superseded calls return false and should do nothing.
// A zero wait lets every call through.
func (d *Debouncer) Settle(ctx context.Context, key string) (bool, error) {
	if d.wait <= 0 {
		return true, nil
	}

	d.mu.Lock()
	d.gens[key]++
	gen := d.gens[key]
	d.mu.Unlock()

	t := time.NewTimer(d.wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		d.mu.Lock()
		if d.gens[key] == gen {
			delete(d.gens, key)
		}
		d.mu.Unlock()
		return false, ctx.Err()
	case <-t.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gens[key] != gen {
		return false, nil
	}
	delete(d.gens, key)
	return true, nil
}
