package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"sentinelx/internal/model"
)

// dedupeTTL bounds how long a processed event key is remembered. Distinct
// events are separated by at least the retrigger holdoff, so anything
// re-seen inside this window is a redelivery.
const dedupeTTL = time.Minute

type dedupeCache struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func newDedupeCache() *dedupeCache {
	return &dedupeCache{items: make(map[string]time.Time)}
}

func (d *dedupeCache) seen(key string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ts, ok := d.items[key]; ok {
		if now.Sub(ts) <= dedupeTTL {
			return true
		}
	}
	d.items[key] = now
	if len(d.items) > 10000 {
		d.compact(now)
	}
	return false
}

// reset clears the cache in place; the engine goroutine may be reading it
// concurrently.
func (d *dedupeCache) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = make(map[string]time.Time)
}

func (d *dedupeCache) compact(now time.Time) {
	for k, ts := range d.items {
		if now.Sub(ts) > dedupeTTL {
			delete(d.items, k)
		}
	}
}

func eventKey(ev model.BrakingEvent) string {
	lat, lon := 0.0, 0.0
	if ev.Point != nil {
		lat, lon = ev.Point.Lat, ev.Point.Lon
	}
	raw := fmt.Sprintf("%s|%.4f|%.6f|%.6f",
		ev.Onset.UTC().Format(time.RFC3339Nano), ev.Peak, lat, lon)
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
