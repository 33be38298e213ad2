package memory

import (
	"fmt"
	"strconv"
	"strings"

	"example.com/activitymemory/internal/domain"
)

// RecordText derives the text representation handed to the embedder. Fields
// appear in a fixed order and absent fields contribute nothing, so identical
// records always embed identically.
func RecordText(record domain.ActivityRecord) string {
	parts := make([]string, 0, 7)

	if record.Exercise != "" {
		parts = append(parts, "Exercise: "+record.Exercise)
	}
	if record.Sets != nil {
		parts = append(parts, fmt.Sprintf("%d sets", *record.Sets))
	}
	if record.Reps != nil {
		parts = append(parts, fmt.Sprintf("%d reps", *record.Reps))
	}
	if record.Weight != nil && record.Unit != nil {
		parts = append(parts, strconv.FormatFloat(*record.Weight, 'f', -1, 64)+" "+*record.Unit)
	}
	if record.Duration != nil {
		parts = append(parts, fmt.Sprintf("%d minutes", *record.Duration))
	}
	if record.Notes != "" {
		parts = append(parts, "Notes: "+record.Notes)
	}
	if record.Date != "" {
		parts = append(parts, "Date: "+record.Date)
	}

	return strings.Join(parts, " | ")
}
