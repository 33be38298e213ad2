package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubStore struct {
	inserted    []ActivityRecord
	insertErr   error
	byExercise  map[string][]ActivityRecord
	byDateRange []ActivityRecord
	searched    []ScoredRecord

	lastExercise   string
	lastRangeStart string
	lastRangeEnd   string
	lastQuery      []float32
	lastTopK       int
	lastThreshold  float32
}

func (s *stubStore) Insert(ctx context.Context, record ActivityRecord) (string, error) {
	if s.insertErr != nil {
		return "", s.insertErr
	}
	record.ID = fmt.Sprintf("id-%d", len(s.inserted)+1)
	s.inserted = append(s.inserted, record)
	return record.ID, nil
}

func (s *stubStore) AllRecords(limit int) []ActivityRecord {
	if limit <= 0 {
		return []ActivityRecord{}
	}
	out := s.inserted
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *stubStore) ByExercise(name string) []ActivityRecord {
	s.lastExercise = name
	return s.byExercise[name]
}

func (s *stubStore) ByDateRange(start, end string) []ActivityRecord {
	s.lastRangeStart = start
	s.lastRangeEnd = end
	return s.byDateRange
}

func (s *stubStore) Search(query []float32, topK int, threshold float32) []ScoredRecord {
	s.lastQuery = query
	s.lastTopK = topK
	s.lastThreshold = threshold
	return s.searched
}

func (s *stubStore) Statistics() Statistics {
	return Statistics{TotalActivities: len(s.inserted), ExerciseCounts: map[string]int{}}
}

type stubExtractor struct {
	activity    *ExtractedActivity
	activityErr error
	intent      *QueryIntent
	intentErr   error
}

func (s *stubExtractor) ExtractActivity(ctx context.Context, message string) (*ExtractedActivity, error) {
	if s.activityErr != nil {
		return nil, s.activityErr
	}
	return s.activity, nil
}

func (s *stubExtractor) ExtractQueryIntent(ctx context.Context, query string) (*QueryIntent, error) {
	if s.intentErr != nil {
		return nil, s.intentErr
	}
	return s.intent, nil
}

type stubEmbedder struct {
	vector []float32
	err    error
	last   string
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	s.last = text
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

type stubPublisher struct {
	published []ActivityRecord
	err       error
}

func (s *stubPublisher) ActivityLogged(ctx context.Context, record ActivityRecord) error {
	s.published = append(s.published, record)
	return s.err
}

func newTestService(store *stubStore, extractor *stubExtractor, embedder *stubEmbedder, publisher Publisher) *Service {
	return NewService(store, extractor, embedder, publisher, Config{
		DefaultSearchLimit:  10,
		SimilarityThreshold: 0.3,
	})
}

func TestLogMessageStoresExtractedActivity(t *testing.T) {
	store := &stubStore{}
	extractor := &stubExtractor{activity: &ExtractedActivity{Exercise: "bench press", Date: "2026-01-10"}}

	service := newTestService(store, extractor, &stubEmbedder{}, nil)
	logged, err := service.LogMessage(context.Background(), "bench pressed today")

	require.NoError(t, err)
	require.Equal(t, "id-1", logged.ID)
	require.Equal(t, "bench press", logged.Activity.Exercise)
	require.Len(t, store.inserted, 1)
}

func TestLogMessageFallsBackOnUnparsableExtraction(t *testing.T) {
	store := &stubStore{}
	extractor := &stubExtractor{activityErr: fmt.Errorf("%w: bad json", ErrUnparsableExtraction)}

	service := newTestService(store, extractor, &stubEmbedder{}, nil)
	logged, err := service.LogMessage(context.Background(), "did some exercise")

	require.NoError(t, err)
	require.Equal(t, UnknownExercise, logged.Activity.Exercise)
	require.Equal(t, "did some exercise", logged.Activity.Notes)
	require.NotEmpty(t, logged.Activity.Date)
	require.Len(t, store.inserted, 1)
}

func TestLogMessagePropagatesOtherExtractionErrors(t *testing.T) {
	store := &stubStore{}
	extractor := &stubExtractor{activityErr: errors.New("api unreachable")}

	service := newTestService(store, extractor, &stubEmbedder{}, nil)
	_, err := service.LogMessage(context.Background(), "did some exercise")

	require.Error(t, err)
	require.Empty(t, store.inserted)
}

func TestLogMessagePropagatesInsertErrors(t *testing.T) {
	store := &stubStore{insertErr: fmt.Errorf("%w: timeout", ErrEmbeddingFailure)}
	extractor := &stubExtractor{activity: &ExtractedActivity{Exercise: "squat"}}

	service := newTestService(store, extractor, &stubEmbedder{}, nil)
	_, err := service.LogMessage(context.Background(), "squats")

	require.ErrorIs(t, err, ErrEmbeddingFailure)
}

func TestLogActivityPublishesEvent(t *testing.T) {
	store := &stubStore{}
	publisher := &stubPublisher{}

	service := newTestService(store, &stubExtractor{}, &stubEmbedder{}, publisher)
	logged, err := service.LogActivity(context.Background(), ExtractedActivity{Exercise: " Bench Press "})

	require.NoError(t, err)
	require.Len(t, publisher.published, 1)
	require.Equal(t, logged.ID, publisher.published[0].ID)
	require.Equal(t, "bench press", publisher.published[0].Exercise)
}

func TestLogActivityPublishFailureIsBestEffort(t *testing.T) {
	store := &stubStore{}
	publisher := &stubPublisher{err: errors.New("broker down")}

	service := newTestService(store, &stubExtractor{}, &stubEmbedder{}, publisher)
	logged, err := service.LogActivity(context.Background(), ExtractedActivity{Exercise: "squat"})

	require.NoError(t, err)
	require.NotEmpty(t, logged.ID)
	require.Len(t, store.inserted, 1)
}

func TestSearchRoutesExerciseFilter(t *testing.T) {
	store := &stubStore{byExercise: map[string][]ActivityRecord{
		"squat": {{ID: "a", Exercise: "squat"}},
	}}
	extractor := &stubExtractor{intent: &QueryIntent{ExerciseFilter: "squat"}}
	embedder := &stubEmbedder{}

	service := newTestService(store, extractor, embedder, nil)
	results, err := service.Search(context.Background(), "show my squats", 0, -1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].Record.ID)
	require.Zero(t, results[0].Score)
	require.Empty(t, embedder.last)
}

func TestSearchRoutesSingleDateFilterAsDegenerateRange(t *testing.T) {
	store := &stubStore{byDateRange: []ActivityRecord{{ID: "a"}}}
	extractor := &stubExtractor{intent: &QueryIntent{DateFilter: "2026-01-10"}}

	service := newTestService(store, extractor, &stubEmbedder{}, nil)
	results, err := service.Search(context.Background(), "what did I do on jan 10", 0, -1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "2026-01-10", store.lastRangeStart)
	require.Equal(t, "2026-01-10", store.lastRangeEnd)
}

func TestSearchRoutesDateRange(t *testing.T) {
	store := &stubStore{byDateRange: []ActivityRecord{{ID: "a"}, {ID: "b"}}}
	extractor := &stubExtractor{intent: &QueryIntent{DateRangeStart: "2026-01-01", DateRangeEnd: "2026-01-31"}}

	service := newTestService(store, extractor, &stubEmbedder{}, nil)
	results, err := service.Search(context.Background(), "workouts in january", 0, -1)

	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "2026-01-01", store.lastRangeStart)
	require.Equal(t, "2026-01-31", store.lastRangeEnd)
}

func TestSearchSemanticPathUsesEmbedding(t *testing.T) {
	store := &stubStore{searched: []ScoredRecord{{Record: ActivityRecord{ID: "a"}, Score: 0.9}}}
	extractor := &stubExtractor{intent: &QueryIntent{SemanticQuery: "leg workouts"}}
	embedder := &stubEmbedder{vector: []float32{1, 0}}

	service := newTestService(store, extractor, embedder, nil)
	results, err := service.Search(context.Background(), "show me leg day", 5, 0.5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "leg workouts", embedder.last)
	require.Equal(t, []float32{1, 0}, store.lastQuery)
	require.Equal(t, 5, store.lastTopK)
	require.Equal(t, float32(0.5), store.lastThreshold)
}

func TestSearchAppliesDefaults(t *testing.T) {
	store := &stubStore{}
	extractor := &stubExtractor{intent: &QueryIntent{SemanticQuery: "cardio"}}
	embedder := &stubEmbedder{vector: []float32{1}}

	service := newTestService(store, extractor, embedder, nil)
	_, err := service.Search(context.Background(), "cardio", 0, -1)

	require.NoError(t, err)
	require.Equal(t, 10, store.lastTopK)
	require.Equal(t, float32(0.3), store.lastThreshold)
}

func TestSearchIntentFailureDegradesToSemantic(t *testing.T) {
	store := &stubStore{}
	extractor := &stubExtractor{intentErr: fmt.Errorf("%w: garbage", ErrUnparsableExtraction)}
	embedder := &stubEmbedder{vector: []float32{1}}

	service := newTestService(store, extractor, embedder, nil)
	_, err := service.Search(context.Background(), "heavy lifts", 0, -1)

	require.NoError(t, err)
	require.Equal(t, "heavy lifts", embedder.last)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	store := &stubStore{}
	extractor := &stubExtractor{intent: &QueryIntent{SemanticQuery: "cardio"}}
	embedder := &stubEmbedder{err: errors.New("timeout")}

	service := newTestService(store, extractor, embedder, nil)
	_, err := service.Search(context.Background(), "cardio", 0, -1)

	require.ErrorIs(t, err, ErrEmbeddingFailure)
}

func TestSearchFilterResultsHonorLimit(t *testing.T) {
	records := []ActivityRecord{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	store := &stubStore{byExercise: map[string][]ActivityRecord{"squat": records}}
	extractor := &stubExtractor{intent: &QueryIntent{ExerciseFilter: "squat"}}

	service := newTestService(store, extractor, &stubEmbedder{}, nil)
	results, err := service.Search(context.Background(), "squats", 2, -1)

	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestNormalizeExercise(t *testing.T) {
	require.Equal(t, "bench press", NormalizeExercise("  Bench PRESS "))
	require.Equal(t, UnknownExercise, NormalizeExercise("   "))
	require.Equal(t, UnknownExercise, NormalizeExercise(""))
}
