package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/smallbiznis/courtside/internal/clock"
)

const (
	memoryShards = 32
	sweepEvery   = 256
)

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ops     int
}

// MemoryStore keeps counters in process. It is only correct for a single
// replica. Expired entries are replaced lazily and swept every few hundred
// operations per shard.
type MemoryStore struct {
	clock  clock.Clock
	shards [memoryShards]*memoryShard

	mu     sync.RWMutex
	closed bool
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	s := &MemoryStore{clock: clk}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]*memoryEntry)}
	}
	return s
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Window, error) {
	if err := validate(key, window); err != nil {
		return Window{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Window{}, ErrStoreClosed
	}

	now := s.clock.Now()
	shard := s.shard(key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.ops++
	if shard.ops >= sweepEvery {
		shard.ops = 0
		for k, e := range shard.entries {
			if !e.resetAt.After(now) {
				delete(shard.entries, k)
			}
		}
	}

	entry, ok := shard.entries[key]
	if !ok || !entry.resetAt.After(now) {
		entry = &memoryEntry{resetAt: now.Add(window)}
		shard.entries[key] = entry
	}
	entry.count++

	return Window{Count: entry.count, ResetAt: entry.resetAt}, nil
}

// Close drops every counter. Increments after Close fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, shard := range s.shards {
		shard.mu.Lock()
		shard.entries = make(map[string]*memoryEntry)
		shard.mu.Unlock()
	}
	return nil
}

func (s *MemoryStore) size() int {
	n := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		n += len(shard.entries)
		shard.mu.Unlock()
	}
	return n
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}
