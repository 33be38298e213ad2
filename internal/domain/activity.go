// Package domain defines the business logic for the activity memory service.
package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmbeddingFailure indicates the embedder could not produce a vector.
	ErrEmbeddingFailure = errors.New("embedding generation failed")
	// ErrUnparsableExtraction indicates the language model returned output that
	// could not be decoded into a structured activity.
	ErrUnparsableExtraction = errors.New("extraction output is not valid JSON")
	// ErrDimensionMismatch is returned when an embedder produces a vector whose
	// length differs from the store's configured dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")
)

// UnknownExercise is the normalized label stored for records that carry no
// usable exercise name.
const UnknownExercise = "unknown"

// DateLayout is the calendar date format used for activity dates. Dates are
// kept as strings so that range checks and ordering reduce to lexicographic
// comparison.
const DateLayout = "2006-01-02"

// ActivityRecord is one logged event together with store-assigned identity.
// Optional fields are explicit pointers so downstream code never probes a
// loosely typed payload for key presence.
type ActivityRecord struct {
	ID        string
	CreatedAt time.Time
	Exercise  string
	Sets      *int
	Reps      *int
	Weight    *float64
	Unit      *string
	Duration  *int
	Date      string
	Notes     string
}

// ExtractedActivity is the structured result produced by the intent extractor,
// before the store assigns identity.
type ExtractedActivity struct {
	Exercise string
	Sets     *int
	Reps     *int
	Weight   *float64
	Unit     *string
	Duration *int
	Date     string
	Notes    string
}

// Record converts the extraction into a store-ready activity record.
func (e ExtractedActivity) Record() ActivityRecord {
	return ActivityRecord{
		Exercise: e.Exercise,
		Sets:     e.Sets,
		Reps:     e.Reps,
		Weight:   e.Weight,
		Unit:     e.Unit,
		Duration: e.Duration,
		Date:     e.Date,
		Notes:    e.Notes,
	}
}

// QueryIntent is the structured search intent produced by the extractor.
// Exactly one retrieval path is chosen from it: exercise filter, date filter,
// date range, or semantic similarity over SemanticQuery.
type QueryIntent struct {
	SemanticQuery  string
	ExerciseFilter string
	DateFilter     string
	DateRangeStart string
	DateRangeEnd   string
}

// ScoredRecord pairs a record with its similarity score. Records returned by
// exact-match and range filters carry a zero score.
type ScoredRecord struct {
	Record ActivityRecord
	Score  float32
}

// Statistics summarises the stored record set.
type Statistics struct {
	TotalActivities   int
	DistinctExercises int
	MostFrequent      string
	LastActivityDate  string
	ExerciseCounts    map[string]int
}

// NormalizeExercise lower-cases and trims an exercise label so exact-match
// lookups are reliable. Records without a usable label normalize to
// UnknownExercise rather than failing the insert.
func NormalizeExercise(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return UnknownExercise
	}
	return normalized
}
