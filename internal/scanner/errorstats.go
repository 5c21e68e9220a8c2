package scanner

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
)

// errorStats tallies probe failures by kind (e.g. "refused", "timeout",
// "handshake_failed") across the whole scan, for the verbose shutdown
// summary. Modeled on the corpus's own fastcache-backed error counter in
// internal/utils/error/error_cache.go, sized down since SvcScan's keyspace
// is a handful of fixed kind strings rather than per-host error history.
type errorStats struct {
	mu    sync.Mutex
	cache *fastcache.Cache
}

func newErrorStats() *errorStats {
	return &errorStats{cache: fastcache.New(32 * 1024)}
}

// Increment bumps kind's counter and returns the new count.
func (e *errorStats) Increment(kind string) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := []byte(kind)
	buf := make([]byte, 4)
	if v := e.cache.Get(buf[:0], key); len(v) == 4 {
		count := binary.LittleEndian.Uint32(v) + 1
		binary.LittleEndian.PutUint32(buf, count)
		e.cache.Set(key, buf)
		return count
	}
	binary.LittleEndian.PutUint32(buf, 1)
	e.cache.Set(key, buf)
	return 1
}

// Count returns kind's current tally, or 0 if it was never incremented.
func (e *errorStats) Count(kind string) uint32 {
	buf := make([]byte, 4)
	v := e.cache.Get(buf[:0], []byte(kind))
	if len(v) != 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(v)
}

// knownKinds lists every IoKind/TlsKind/HttpKind string errorStats.Increment
// is ever called with, in a fixed display order for the shutdown summary.
var knownKinds = []string{
	"refused", "reset", "timeout", "would_block", "unknown",
	"stream_truncated", "handshake_failed", "other",
	"headers", "body",
}

// Summary returns "kind=count" for every kind with a nonzero tally, in
// knownKinds order.
func (e *errorStats) Summary() []string {
	var out []string
	for _, kind := range knownKinds {
		if n := e.Count(kind); n > 0 {
			out = append(out, fmt.Sprintf("%s=%d", kind, n))
		}
	}
	return out
}
