// Package events delivers activity lifecycle events to Kafka for downstream
// consumers. Delivery is best effort: the store, not the broker, is the
// source of truth.
package events

import (
	"time"

	"example.com/activitymemory/internal/domain"
)

// TopicActivityEvents carries every activity lifecycle event.
const TopicActivityEvents = "activity_events"

// EventTypeActivityLogged identifies the message emitted after a record is
// accepted by the store.
const EventTypeActivityLogged = "activity.logged"

// ActivityLogged is the payload published when a new activity is stored.
type ActivityLogged struct {
	ActivityID string    `json:"activity_id"`
	Exercise   string    `json:"exercise"`
	Sets       *int      `json:"sets,omitempty"`
	Reps       *int      `json:"reps,omitempty"`
	Weight     *float64  `json:"weight,omitempty"`
	Unit       *string   `json:"unit,omitempty"`
	Duration   *int      `json:"duration,omitempty"`
	Date       string    `json:"date,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromRecord maps a stored record onto the event payload.
func FromRecord(record domain.ActivityRecord) ActivityLogged {
	return ActivityLogged{
		ActivityID: record.ID,
		Exercise:   record.Exercise,
		Sets:       record.Sets,
		Reps:       record.Reps,
		Weight:     record.Weight,
		Unit:       record.Unit,
		Duration:   record.Duration,
		Date:       record.Date,
		Notes:      record.Notes,
		CreatedAt:  record.CreatedAt,
	}
}
