package memory

import (
	"sort"
	"time"

	"example.com/activitymemory/internal/domain"
)

// DateGroup is one presentation bucket of search results sharing a date. The
// unknown bucket (records without a date) has an empty Date.
type DateGroup struct {
	Date       string
	Activities []domain.ActivityRecord
	// Score is the maximum similarity score among the bucket's members.
	Score float32
}

// GroupByDate partitions search results into buckets keyed by record date,
// ordered by date descending. Records without a date bucket together and sort
// using now as their effective date.
func GroupByDate(results []domain.ScoredRecord, now time.Time) []DateGroup {
	buckets := make(map[string]*DateGroup)
	order := make([]string, 0)

	for _, entry := range results {
		key := entry.Record.Date
		group, ok := buckets[key]
		if !ok {
			group = &DateGroup{Date: key}
			buckets[key] = group
			order = append(order, key)
		}
		group.Activities = append(group.Activities, entry.Record)
		if entry.Score > group.Score || len(group.Activities) == 1 {
			group.Score = entry.Score
		}
	}

	unknownDate := now.UTC().Format(domain.DateLayout)
	effective := func(key string) string {
		if key == "" {
			return unknownDate
		}
		return key
	}

	sort.SliceStable(order, func(i, j int) bool {
		return effective(order[i]) > effective(order[j])
	})

	groups := make([]DateGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *buckets[key])
	}
	return groups
}

// computeStatistics aggregates the full record set. Ties for the most
// frequent exercise resolve to the label first encountered in insertion
// order; the last activity date is the lexicographic maximum, which is
// chronological for well-formed ISO dates.
func computeStatistics(records []domain.ActivityRecord) domain.Statistics {
	stats := domain.Statistics{ExerciseCounts: make(map[string]int)}
	if len(records) == 0 {
		return stats
	}

	stats.TotalActivities = len(records)
	for _, record := range records {
		stats.ExerciseCounts[record.Exercise]++
		if record.Date > stats.LastActivityDate {
			stats.LastActivityDate = record.Date
		}
	}
	stats.DistinctExercises = len(stats.ExerciseCounts)

	best := 0
	seen := make(map[string]struct{}, len(stats.ExerciseCounts))
	for _, record := range records {
		if _, ok := seen[record.Exercise]; ok {
			continue
		}
		seen[record.Exercise] = struct{}{}
		if count := stats.ExerciseCounts[record.Exercise]; count > best {
			best = count
			stats.MostFrequent = record.Exercise
		}
	}

	return stats
}
