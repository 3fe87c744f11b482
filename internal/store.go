package internal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore is the capped, ordered collection of memory records. Writes
// happen on the controller goroutine after a request completes; the mutex
// exists for the CLI and client read paths.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []MemoryRecord
	nextID   int64
	capacity int
	journal  *Journal
	log      *slog.Logger
}

// NewMemoryStore loads all persisted records from the journal. Unreadable or
// corrupt persisted state degrades to an empty store instead of failing:
// losing memory continuity beats losing availability.
func NewMemoryStore(ctx context.Context, capacity int, journal *Journal, log *slog.Logger) *MemoryStore {
	if log == nil {
		log = slog.Default()
	}

	s := &MemoryStore{
		capacity: capacity,
		journal:  journal,
		log:      log.With("component", "store"),
	}

	if journal == nil {
		return s
	}

	records, skipped, err := journal.LoadAll(ctx)
	if err != nil {
		s.log.Warn("journal unreadable, starting with empty memory", "err", err)
		return s
	}
	if skipped > 0 {
		s.log.Warn("skipped corrupt memory records", "count", skipped)
	}

	s.records = records
	for _, rec := range records {
		if rec.ID >= s.nextID {
			s.nextID = rec.ID + 1
		}
	}

	return s
}

// Insert assigns the next id, persists the record, and prunes past capacity.
// Persistence failure is absorbed: the record stays in memory for this
// process and the condition is logged.
func (s *MemoryStore) Insert(ctx context.Context, rec MemoryRecord) MemoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.records = append(s.records, rec)

	if s.journal != nil {
		if err := s.journal.Append(ctx, rec); err != nil {
			s.log.Warn("memory not persisted", "id", rec.ID, "err", err)
		}
	}

	s.pruneLocked(ctx)
	return rec
}

// PruneToCapacity evicts oldest-by-id records until the store fits the given
// capacity, returning the number evicted. Zero keeps the current capacity.
func (s *MemoryStore) PruneToCapacity(ctx context.Context, capacity int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if capacity > 0 {
		s.capacity = capacity
	}

	before := len(s.records)
	s.pruneLocked(ctx)
	return before - len(s.records)
}

func (s *MemoryStore) pruneLocked(ctx context.Context) {
	for s.capacity > 0 && len(s.records) > s.capacity {
		oldest := s.records[0]
		s.records = s.records[1:]

		if s.journal != nil {
			if err := s.journal.Remove(ctx, oldest.ID); err != nil {
				s.log.Warn("eviction not persisted", "id", oldest.ID, "err", err)
			}
		}
	}
}

// Scan returns the records of one context class in insertion order.
func (s *MemoryStore) Scan(kind RecordKind) []MemoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MemoryRecord
	for _, rec := range s.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record in insertion order.
func (s *MemoryStore) All() []MemoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MemoryRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given id.
func (s *MemoryStore) Get(id int64) (MemoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return MemoryRecord{}, false
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
