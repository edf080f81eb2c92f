package scene

import (
	"sync"
	"time"
)

// DefaultGuardIdle is how long a key may go without a Begin before the
// guard drops it.
const DefaultGuardIdle = 10 * time.Minute

type guardEntry struct {
	gen  uint64
	seen time.Time
}

// Guard hands out increasing generation numbers per key so that a slow
// composition can tell it has been superseded. Keys idle for longer than
// the idle window are swept on a later Begin.
type Guard struct {
	mu        sync.Mutex
	idle      time.Duration
	entries   map[string]*guardEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewGuard() *Guard { return NewGuardWithIdle(DefaultGuardIdle) }

func NewGuardWithIdle(idle time.Duration) *Guard {
	if idle <= 0 {
		idle = DefaultGuardIdle
	}
	return &Guard{idle: idle, entries: map[string]*guardEntry{}, now: time.Now, lastSweep: time.Now()}
}

func (g *Guard) Begin(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if now.Sub(g.lastSweep) > g.idle/2 {
		for k, e := range g.entries {
			if now.Sub(e.seen) > g.idle {
				delete(g.entries, k)
			}
		}
		g.lastSweep = now
	}
	e, ok := g.entries[key]
	if !ok {
		e = &guardEntry{}
		g.entries[key] = e
	}
	e.gen++
	e.seen = now
	return e.gen
}

func (g *Guard) Current(key string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[key]
	return ok && e.gen == gen
}

func (g *Guard) Forget(key string) {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
}

// Len is the number of tracked keys.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
