package usecase

import (
	"math"
	"sort"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

// promptContentLimit bounds per-candidate text in the prompt, independently
// of the extraction cap.
const promptContentLimit = 2000

// CosineSimilarity returns dot(a,b)/(|a|*|b|). Nil, mismatched or zero-norm
// vectors score 0 instead of dividing by zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
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
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankCandidates drops scores at or below the relevance floor, sorts
// descending (stable, so catalog order breaks ties) and keeps the top K.
// Ranked candidates carry prompt-bounded text.
func rankCandidates(candidates []domain.Candidate, minSimilarity float64, topK int) []domain.Candidate {
	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > minSimilarity {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}
	for i := range kept {
		kept[i].Text = truncateRunes(kept[i].Text, promptContentLimit)
	}
	return kept
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
