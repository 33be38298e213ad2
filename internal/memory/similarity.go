package memory

import (
	"math"
	"sort"

	"example.com/activitymemory/internal/domain"
)

// cosineSimilarity returns the cosine of the angle between a and b. When
// either vector has zero norm the similarity is defined as exactly 0; the
// result is never clamped otherwise.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// rank scores every record against the query vector, orders by score
// descending with ties kept in insertion order, truncates to topK, and then
// applies the threshold inside that window.
func rank(records []domain.ActivityRecord, vectors [][]float32, query []float32, topK int, threshold float32) []domain.ScoredRecord {
	results := make([]domain.ScoredRecord, 0)
	if topK <= 0 || len(records) == 0 {
		return results
	}

	scored := make([]domain.ScoredRecord, len(records))
	for i := range records {
		scored[i] = domain.ScoredRecord{
			Record: records[i],
			Score:  cosineSimilarity(query, vectors[i]),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	for _, entry := range scored {
		if entry.Score >= threshold {
			results = append(results, entry)
		}
	}
	return results
}
