package api

import (
	"errors"
	"time"

	"example.com/activitymemory/internal/domain"
)

// LogActivityRequest carries a free-form workout description.
type LogActivityRequest struct {
	Message string `json:"message"`
}

// Validate checks required fields.
func (r LogActivityRequest) Validate() error {
	if r.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

// CreateActivityRequest carries an already structured activity.
type CreateActivityRequest struct {
	Exercise string   `json:"exercise"`
	Sets     *int     `json:"sets,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	Duration *int     `json:"duration_minutes,omitempty"`
	Date     string   `json:"date,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Validate checks required fields and formats.
func (r CreateActivityRequest) Validate() error {
	if r.Exercise == "" {
		return errors.New("exercise is required")
	}
	if r.Date != "" {
		if _, err := time.Parse(domain.DateLayout, r.Date); err != nil {
			return errors.New("date must use YYYY-MM-DD")
		}
	}
	if r.Unit != nil && *r.Unit != "lbs" && *r.Unit != "kg" {
		return errors.New("unit must be lbs or kg")
	}
	if r.Sets != nil && *r.Sets <= 0 {
		return errors.New("sets must be positive")
	}
	if r.Reps != nil && *r.Reps <= 0 {
		return errors.New("reps must be positive")
	}
	if r.Duration != nil && *r.Duration <= 0 {
		return errors.New("duration_minutes must be positive")
	}
	return nil
}

func (r CreateActivityRequest) extracted() domain.ExtractedActivity {
	return domain.ExtractedActivity{
		Exercise: r.Exercise,
		Sets:     r.Sets,
		Reps:     r.Reps,
		Weight:   r.Weight,
		Unit:     r.Unit,
		Duration: r.Duration,
		Date:     r.Date,
		Notes:    r.Notes,
	}
}

// SearchRequest carries a natural-language search query.
type SearchRequest struct {
	Query               string   `json:"query"`
	Limit               int      `json:"limit,omitempty"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
}

// Validate checks required fields and bounds.
func (r SearchRequest) Validate() error {
	if r.Query == "" {
		return errors.New("query is required")
	}
	if r.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	if r.SimilarityThreshold != nil && (*r.SimilarityThreshold < 0 || *r.SimilarityThreshold > 1) {
		return errors.New("similarity_threshold must be between 0 and 1")
	}
	return nil
}

// ActivityView is the JSON shape of a stored activity record.
type ActivityView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Exercise  string    `json:"exercise"`
	Sets      *int      `json:"sets,omitempty"`
	Reps      *int      `json:"reps,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	Unit      *string   `json:"unit,omitempty"`
	Duration  *int      `json:"duration_minutes,omitempty"`
	Date      string    `json:"date,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// ParsedActivityView echoes the structured fields extracted from a message.
type ParsedActivityView struct {
	Exercise string   `json:"exercise"`
	Sets     *int     `json:"sets,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	Duration *int     `json:"duration_minutes,omitempty"`
	Date     string   `json:"date,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// LogActivityResponse confirms a stored activity.
type LogActivityResponse struct {
	ActivityID string             `json:"activity_id"`
	ParsedData ParsedActivityView `json:"parsed_data"`
	Message    string             `json:"message"`
}

// ListActivitiesResponse lists recent activities.
type ListActivitiesResponse struct {
	Total      int            `json:"total"`
	Activities []ActivityView `json:"activities"`
}

// StatisticsResponse summarises the stored activities.
type StatisticsResponse struct {
	TotalWorkouts        int            `json:"total_workouts"`
	TotalExercises       int            `json:"total_exercises"`
	MostFrequentExercise *string        `json:"most_frequent_exercise,omitempty"`
	LastWorkoutDate      *string        `json:"last_workout_date,omitempty"`
	ExerciseBreakdown    map[string]int `json:"exercise_breakdown"`
}

// DateGroupView groups search hits that share a calendar date.
type DateGroupView struct {
	Date            string         `json:"date,omitempty"`
	Activities      []ActivityView `json:"activities"`
	SimilarityScore float32        `json:"similarity_score"`
}

// SearchResponse answers a search query with date-grouped results.
type SearchResponse struct {
	Query        string          `json:"query"`
	Results      []DateGroupView `json:"results"`
	TotalResults int             `json:"total_results"`
}

// ByExerciseResponse lists activities for one exercise.
type ByExerciseResponse struct {
	Exercise   string         `json:"exercise"`
	Total      int            `json:"total"`
	Activities []ActivityView `json:"activities"`
}

// ByDateRangeResponse lists activities inside a date range.
type ByDateRangeResponse struct {
	StartDate  string         `json:"start_date,omitempty"`
	EndDate    string         `json:"end_date,omitempty"`
	Total      int            `json:"total"`
	Activities []ActivityView `json:"activities"`
}

func toActivityView(record domain.ActivityRecord) ActivityView {
	return ActivityView{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Exercise:  record.Exercise,
		Sets:      record.Sets,
		Reps:      record.Reps,
		Weight:    record.Weight,
		Unit:      record.Unit,
		Duration:  record.Duration,
		Date:      record.Date,
		Notes:     record.Notes,
	}
}

func toActivityViews(records []domain.ActivityRecord) []ActivityView {
	views := make([]ActivityView, 0, len(records))
	for _, record := range records {
		views = append(views, toActivityView(record))
	}
	return views
}

func toParsedView(activity domain.ExtractedActivity) ParsedActivityView {
	return ParsedActivityView{
		Exercise: domain.NormalizeExercise(activity.Exercise),
		Sets:     activity.Sets,
		Reps:     activity.Reps,
		Weight:   activity.Weight,
		Unit:     activity.Unit,
		Duration: activity.Duration,
		Date:     activity.Date,
		Notes:    activity.Notes,
	}
}
