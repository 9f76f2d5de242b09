package calibration

import (
	"sync"

	"github.com/Scardubu/sabiscore/internal/models"
)

// DefaultBufferCapacity is the per-league rolling window size
const DefaultBufferCapacity = 500

// Buffer is the bounded rolling window of finished-match results, one ring
// per league. Appends come from the result-ingestion path; the
// recalibration loop reads snapshots without consuming. At capacity the
// oldest record is discarded even if no recalibration pass ever read it.
type Buffer struct {
	capacity int

	mu      sync.RWMutex
	rings   map[string][]models.LiveResultRecord
	heads   map[string]int
	counts  map[string]int
	totals  map[string]uint64
}

// NewBuffer creates a buffer with the given per-league capacity
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer{
		capacity: capacity,
		rings:    make(map[string][]models.LiveResultRecord),
		heads:    make(map[string]int),
		counts:   make(map[string]int),
		totals:   make(map[string]uint64),
	}
}

// Append adds a record to its league's ring, evicting FIFO at capacity
func (b *Buffer) Append(rec models.LiveResultRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ring, ok := b.rings[rec.League]
	if !ok {
		ring = make([]models.LiveResultRecord, b.capacity)
		b.rings[rec.League] = ring
	}

	head := b.heads[rec.League]
	count := b.counts[rec.League]

	ring[(head+count)%b.capacity] = rec
	if count < b.capacity {
		b.counts[rec.League] = count + 1
	} else {
		// Full: the slot we just wrote replaced the oldest record
		b.heads[rec.League] = (head + 1) % b.capacity
	}
	b.totals[rec.League]++
}

// Snapshot returns the league's records oldest-first. The returned slice is
// a copy; callers may not mutate buffer state through it.
func (b *Buffer) Snapshot(league string) []models.LiveResultRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.counts[league]
	if count == 0 {
		return nil
	}
	ring := b.rings[league]
	head := b.heads[league]
	out := make([]models.LiveResultRecord, count)
	for i := 0; i < count; i++ {
		out[i] = ring[(head+i)%b.capacity]
	}
	return out
}

// Len returns the number of records currently held for a league
func (b *Buffer) Len(league string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.counts[league]
}

// TotalAppended returns the lifetime append count for a league, including
// evicted records. The recalibration loop diffs this against its last fit
// to decide whether enough new samples accumulated.
func (b *Buffer) TotalAppended(league string) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.totals[league]
}

// Leagues returns every league that has received at least one record
func (b *Buffer) Leagues() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	leagues := make([]string, 0, len(b.counts))
	for league, count := range b.counts {
		if count > 0 {
			leagues = append(leagues, league)
		}
	}
	return leagues
}
