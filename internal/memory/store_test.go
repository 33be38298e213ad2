package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/activitymemory/internal/domain"
)

// stubEmbedder returns queued vectors in insert order, falling back to a unit
// basis vector when the queue is exhausted.
type stubEmbedder struct {
	dims  int
	queue [][]float32
	err   error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.queue) > 0 {
		vector := s.queue[0]
		s.queue = s.queue[1:]
		return vector, nil
	}
	vector := make([]float32, s.dims)
	vector[0] = 1
	return vector, nil
}

func (s *stubEmbedder) Dimensions() int {
	return s.dims
}

func newTestStore() *Store {
	return NewStore(&stubEmbedder{dims: 2})
}

func intPtr(v int) *int { return &v }

func TestStoreInsertNormalizesExercise(t *testing.T) {
	store := newTestStore()

	id, err := store.Insert(context.Background(), domain.ActivityRecord{Exercise: "  Bench Press "})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records := store.AllRecords(10)
	require.Len(t, records, 1)
	require.Equal(t, id, records[0].ID)
	require.Equal(t, "bench press", records[0].Exercise)
	require.False(t, records[0].CreatedAt.IsZero())
}

func TestStoreInsertMissingExerciseBecomesUnknown(t *testing.T) {
	store := newTestStore()

	_, err := store.Insert(context.Background(), domain.ActivityRecord{Notes: "felt great"})
	require.NoError(t, err)

	records := store.AllRecords(1)
	require.Len(t, records, 1)
	require.Equal(t, domain.UnknownExercise, records[0].Exercise)
}

func TestStoreInsertEmbeddingFailure(t *testing.T) {
	store := NewStore(&stubEmbedder{dims: 2, err: errors.New("connection refused")})

	_, err := store.Insert(context.Background(), domain.ActivityRecord{Exercise: "squat"})
	require.ErrorIs(t, err, domain.ErrEmbeddingFailure)
	require.Empty(t, store.AllRecords(10))
}

func TestStoreInsertDimensionMismatch(t *testing.T) {
	store := NewStore(&stubEmbedder{dims: 2, queue: [][]float32{{1, 0, 0}}})

	_, err := store.Insert(context.Background(), domain.ActivityRecord{Exercise: "squat"})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	require.Empty(t, store.AllRecords(10))
}

func TestStoreAllRecordsNewestFirst(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	first, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "squat"})
	require.NoError(t, err)
	second, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "bench press"})
	require.NoError(t, err)
	third, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "deadlift"})
	require.NoError(t, err)

	records := store.AllRecords(2)
	require.Len(t, records, 2)
	require.Equal(t, third, records[0].ID)
	require.Equal(t, second, records[1].ID)
	require.NotEqual(t, first, records[1].ID)

	require.Empty(t, store.AllRecords(0))
	require.Empty(t, store.AllRecords(-5))
}

func TestStoreByExerciseIsCaseInsensitive(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "Bench Press", Date: "2026-01-10"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, domain.ActivityRecord{Exercise: "squat", Date: "2026-01-12"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, domain.ActivityRecord{Exercise: "BENCH press", Date: "2026-01-15"})
	require.NoError(t, err)

	records := store.ByExercise("  bench PRESS ")
	require.Len(t, records, 2)
	require.Equal(t, "2026-01-15", records[0].Date)
	require.Equal(t, "2026-01-10", records[1].Date)
}

func TestStoreByExerciseDatelessRecordsSortLast(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "run"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, domain.ActivityRecord{Exercise: "run", Date: "2026-01-05"})
	require.NoError(t, err)

	records := store.ByExercise("run")
	require.Len(t, records, 2)
	require.Equal(t, "2026-01-05", records[0].Date)
	require.Empty(t, records[1].Date)
}

func TestStoreByDateRange(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	dates := []string{"2026-01-10", "2026-01-15", "2026-01-20"}
	for _, date := range dates {
		_, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "squat", Date: date})
		require.NoError(t, err)
	}
	// A record without a date never matches a range query.
	_, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "squat"})
	require.NoError(t, err)

	bounded := store.ByDateRange("2026-01-10", "2026-01-15")
	require.Len(t, bounded, 2)
	require.Equal(t, "2026-01-15", bounded[0].Date)
	require.Equal(t, "2026-01-10", bounded[1].Date)

	openStart := store.ByDateRange("", "2026-01-15")
	require.Len(t, openStart, 2)

	openEnd := store.ByDateRange("2026-01-15", "")
	require.Len(t, openEnd, 2)
	require.Equal(t, "2026-01-20", openEnd[0].Date)

	unbounded := store.ByDateRange("", "")
	require.Len(t, unbounded, 3)

	require.Empty(t, store.ByDateRange("2026-02-01", "2026-02-28"))
}

func TestStoreSearchRanksByQueryVector(t *testing.T) {
	store := NewStore(&stubEmbedder{dims: 2, queue: [][]float32{
		vectorWithScore(0.4),
		vectorWithScore(0.95),
		vectorWithScore(0.7),
	}})
	ctx := context.Background()

	for _, name := range []string{"rowing", "bench press", "squat"} {
		_, err := store.Insert(ctx, domain.ActivityRecord{Exercise: name})
		require.NoError(t, err)
	}

	results := store.Search(unitQuery(), 2, 0.5)
	require.Len(t, results, 2)
	require.Equal(t, "bench press", results[0].Record.Exercise)
	require.Equal(t, "squat", results[1].Record.Exercise)
	require.Greater(t, results[0].Score, results[1].Score)
}

func TestStoreStatisticsEmpty(t *testing.T) {
	store := newTestStore()

	stats := store.Statistics()
	require.Zero(t, stats.TotalActivities)
	require.Zero(t, stats.DistinctExercises)
	require.Empty(t, stats.MostFrequent)
	require.Empty(t, stats.LastActivityDate)
	require.NotNil(t, stats.ExerciseCounts)
	require.Empty(t, stats.ExerciseCounts)
}

func TestStoreStatistics(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	inserts := []domain.ActivityRecord{
		{Exercise: "Bench Press", Date: "2026-01-10", Sets: intPtr(3)},
		{Exercise: "squat", Date: "2026-01-20"},
		{Exercise: "bench press", Date: "2026-01-05"},
	}
	for _, record := range inserts {
		_, err := store.Insert(ctx, record)
		require.NoError(t, err)
	}

	stats := store.Statistics()
	require.Equal(t, 3, stats.TotalActivities)
	require.Equal(t, 2, stats.DistinctExercises)
	require.Equal(t, "bench press", stats.MostFrequent)
	require.Equal(t, "2026-01-20", stats.LastActivityDate)
	require.Equal(t, map[string]int{"bench press": 2, "squat": 1}, stats.ExerciseCounts)
}

func TestStoreStatisticsTieResolvesToFirstSeen(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	for _, name := range []string{"squat", "bench press"} {
		_, err := store.Insert(ctx, domain.ActivityRecord{Exercise: name})
		require.NoError(t, err)
	}

	stats := store.Statistics()
	require.Equal(t, "squat", stats.MostFrequent)
}

func TestStoreConcurrentInsertAndRead(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.Insert(ctx, domain.ActivityRecord{Exercise: "squat", Date: "2026-01-10"})
			require.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			store.Search(unitQuery(), 5, 0)
			store.Statistics()
		}()
	}
	wg.Wait()

	require.Len(t, store.AllRecords(100), 8)
}
