package usecase

import (
	"fmt"
	"strings"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

const inferredSourceNote = "inferred from similarity; not explicitly cited"

// attributeSources determines post hoc which numbered documents the answer
// actually cites, by literal string matching. The heuristic is fragile by
// nature (it depends on the model following the citation phrasing), so when
// grounding was supplied but nothing matched, the top-similarity candidate
// is attributed with an explicit note.
func attributeSources(response string, ranked []domain.Candidate) []domain.Source {
	if len(ranked) == 0 {
		return []domain.Source{}
	}

	haystack := strings.ToLower(response)
	sources := make([]domain.Source, 0, len(ranked))
	for i, c := range ranked {
		marker := fmt.Sprintf("document %d", i+1)
		if strings.Contains(haystack, marker) || containsName(haystack, c.Document.Name) {
			sources = append(sources, domain.Source{
				DocumentID: c.Document.ID,
				Name:       c.Document.Name,
				Score:      c.Score,
			})
		}
	}

	if len(sources) == 0 {
		top := ranked[0]
		sources = append(sources, domain.Source{
			DocumentID: top.Document.ID,
			Name:       top.Document.Name,
			Score:      top.Score,
			Note:       inferredSourceNote,
		})
	}
	return sources
}

func containsName(haystack, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	return strings.Contains(haystack, name)
}
