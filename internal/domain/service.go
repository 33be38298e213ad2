package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Store captures the operations of the activity memory store.
type Store interface {
	Insert(ctx context.Context, record ActivityRecord) (string, error)
	AllRecords(limit int) []ActivityRecord
	ByExercise(name string) []ActivityRecord
	ByDateRange(start, end string) []ActivityRecord
	Search(query []float32, topK int, threshold float32) []ScoredRecord
	Statistics() Statistics
}

// Extractor converts free-form natural language into structured data.
type Extractor interface {
	ExtractActivity(ctx context.Context, message string) (*ExtractedActivity, error)
	ExtractQueryIntent(ctx context.Context, query string) (*QueryIntent, error)
}

// QueryEmbedder produces search-time query vectors in the same vector space
// as the stored record embeddings.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Publisher emits activity lifecycle events for downstream consumers.
type Publisher interface {
	ActivityLogged(ctx context.Context, record ActivityRecord) error
}

// Service orchestrates extraction, storage, and retrieval. It is constructed
// once at process startup and handed to every request handler; there is no
// ambient shared state.
type Service struct {
	store            Store
	extractor        Extractor
	queries          QueryEmbedder
	publisher        Publisher
	defaultLimit     int
	defaultThreshold float32
}

// Config carries Service construction parameters.
type Config struct {
	DefaultSearchLimit  int
	SimilarityThreshold float32
}

// NewService constructs a Service. The publisher may be nil when event
// publishing is disabled.
func NewService(store Store, extractor Extractor, queries QueryEmbedder, publisher Publisher, cfg Config) *Service {
	if cfg.DefaultSearchLimit <= 0 {
		cfg.DefaultSearchLimit = 10
	}
	return &Service{
		store:            store,
		extractor:        extractor,
		queries:          queries,
		publisher:        publisher,
		defaultLimit:     cfg.DefaultSearchLimit,
		defaultThreshold: cfg.SimilarityThreshold,
	}
}

// LoggedActivity is the result of logging a message or structured record.
type LoggedActivity struct {
	ID       string
	Activity ExtractedActivity
}

// LogMessage extracts a structured activity from the message and stores it.
// When the extractor cannot produce valid JSON the message is stored as an
// explicit fallback record under the unknown exercise label, so the store is
// never handed a partially parsed payload.
func (s *Service) LogMessage(ctx context.Context, message string) (*LoggedActivity, error) {
	extracted, err := s.extractor.ExtractActivity(ctx, message)
	if err != nil {
		if !errors.Is(err, ErrUnparsableExtraction) {
			return nil, err
		}
		log.Printf("extraction fallback for message: %v", err)
		extracted = &ExtractedActivity{
			Exercise: UnknownExercise,
			Notes:    message,
			Date:     time.Now().UTC().Format(DateLayout),
		}
	}

	return s.LogActivity(ctx, *extracted)
}

// LogActivity stores an already structured activity.
func (s *Service) LogActivity(ctx context.Context, activity ExtractedActivity) (*LoggedActivity, error) {
	record := activity.Record()
	id, err := s.store.Insert(ctx, record)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		record.ID = id
		record.Exercise = NormalizeExercise(record.Exercise)
		if err := s.publisher.ActivityLogged(ctx, record); err != nil {
			// Event delivery is best effort; the record is already stored.
			log.Printf("activity.logged publish failed for %s: %v", id, err)
		}
	}

	return &LoggedActivity{ID: id, Activity: activity}, nil
}

// Recent returns the most recently created records, newest first.
func (s *Service) Recent(limit int) []ActivityRecord {
	return s.store.AllRecords(limit)
}

// ByExercise returns records matching the exercise name, case-insensitively.
func (s *Service) ByExercise(name string) []ActivityRecord {
	return s.store.ByExercise(name)
}

// ByDateRange returns records whose date falls inside the inclusive range.
func (s *Service) ByDateRange(start, end string) []ActivityRecord {
	return s.store.ByDateRange(start, end)
}

// Statistics summarises the stored record set.
func (s *Service) Statistics() Statistics {
	return s.store.Statistics()
}

// Search answers a natural-language query. The extracted intent selects the
// retrieval path: categorical and date filters bypass the ranker, everything
// else runs a semantic similarity search. Filter results carry zero scores.
func (s *Service) Search(ctx context.Context, query string, limit int, threshold float32) ([]ScoredRecord, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if threshold < 0 {
		threshold = s.defaultThreshold
	}

	intent, err := s.extractor.ExtractQueryIntent(ctx, query)
	if err != nil {
		// Degrade to a pure semantic search over the raw query.
		log.Printf("query intent fallback: %v", err)
		intent = &QueryIntent{SemanticQuery: query}
	}

	switch {
	case intent.ExerciseFilter != "":
		return withoutScores(s.store.ByExercise(intent.ExerciseFilter), limit), nil
	case intent.DateFilter != "":
		return withoutScores(s.store.ByDateRange(intent.DateFilter, intent.DateFilter), limit), nil
	case intent.DateRangeStart != "" || intent.DateRangeEnd != "":
		return withoutScores(s.store.ByDateRange(intent.DateRangeStart, intent.DateRangeEnd), limit), nil
	}

	semantic := intent.SemanticQuery
	if semantic == "" {
		semantic = query
	}

	vector, err := s.queries.EmbedQuery(ctx, semantic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}

	return s.store.Search(vector, limit, threshold), nil
}

func withoutScores(records []ActivityRecord, limit int) []ScoredRecord {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	results := make([]ScoredRecord, 0, len(records))
	for _, record := range records {
		results = append(results, ScoredRecord{Record: record})
	}
	return results
}
