// Package memory implements the in-memory activity store: an append-only
// collection of record/vector pairs with similarity search, exact-match and
// range filters, and aggregate statistics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/activitymemory/internal/domain"
	"example.com/activitymemory/internal/observability"
)

// Embedder produces record embeddings at insert time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Store owns the canonical record set and the pairing invariant: records[i]
// and vectors[i] always refer to the same activity and are appended together
// under the write lock. All other components read through the store rather
// than maintaining parallel indices.
type Store struct {
	embedder Embedder
	dims     int

	mu      sync.RWMutex
	records []domain.ActivityRecord
	vectors [][]float32
}

// NewStore constructs a Store whose dimensionality is fixed to the embedder's.
func NewStore(embedder Embedder) *Store {
	return &Store{embedder: embedder, dims: embedder.Dimensions()}
}

// Insert assigns identity to the record, obtains its embedding, and appends
// the record/vector pair. Duplicate content is permitted; every insert is an
// independent record. The embedding is generated before the write lock is
// taken so concurrent readers are never stalled behind the embedder.
func (s *Store) Insert(ctx context.Context, record domain.ActivityRecord) (string, error) {
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now().UTC()
	record.Exercise = domain.NormalizeExercise(record.Exercise)

	vector, err := s.embedder.Embed(ctx, RecordText(record))
	if err != nil {
		observability.RecordEmbeddingFailure()
		return "", fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}
	if len(vector) != s.dims {
		return "", fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), s.dims)
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	s.vectors = append(s.vectors, vector)
	total := len(s.records)
	s.mu.Unlock()

	observability.RecordActivityStored(total)
	return record.ID, nil
}

// AllRecords returns up to limit records ordered by creation time descending.
// A non-positive limit yields an empty result.
func (s *Store) AllRecords(limit int) []domain.ActivityRecord {
	if limit <= 0 {
		return []domain.ActivityRecord{}
	}

	out := s.snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByExercise returns records whose normalized exercise matches name, ordered
// by date descending. Records without a date sort last rather than leading.
func (s *Store) ByExercise(name string) []domain.ActivityRecord {
	normalized := domain.NormalizeExercise(name)

	out := make([]domain.ActivityRecord, 0)
	for _, record := range s.snapshot() {
		if record.Exercise == normalized {
			out = append(out, record)
		}
	}
	sortByDateDescending(out)
	return out
}

// ByDateRange returns records whose date lies inside the inclusive range.
// Empty bounds are unbounded on that side. Records without a date cannot be
// known to be in range and are excluded.
func (s *Store) ByDateRange(start, end string) []domain.ActivityRecord {
	out := make([]domain.ActivityRecord, 0)
	for _, record := range s.snapshot() {
		if record.Date == "" {
			continue
		}
		if start != "" && record.Date < start {
			continue
		}
		if end != "" && record.Date > end {
			continue
		}
		out = append(out, record)
	}
	sortByDateDescending(out)
	return out
}

// Search ranks every stored record against the query vector by cosine
// similarity, truncates to topK, then drops entries scoring strictly below
// the threshold. The threshold applies within the top-K window: a qualifying
// record ranked beyond topK is never promoted.
func (s *Store) Search(query []float32, topK int, threshold float32) []domain.ScoredRecord {
	started := time.Now()
	defer func() { observability.ObserveSearchDuration(time.Since(started)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return rank(s.records, s.vectors, query, topK, threshold)
}

// Statistics summarises the stored record set. An empty store yields zero
// counts rather than an error.
func (s *Store) Statistics() domain.Statistics {
	return computeStatistics(s.snapshot())
}

func (s *Store) snapshot() []domain.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ActivityRecord, len(s.records))
	copy(out, s.records)
	return out
}

// sortByDateDescending orders records newest date first. Dates are ISO
// calendar strings, so lexicographic comparison is chronological and the
// empty (absent) date is the lowest value.
func sortByDateDescending(records []domain.ActivityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}
