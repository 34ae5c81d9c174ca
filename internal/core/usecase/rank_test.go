package usecase

import (
	"math"
	"testing"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

func TestCosineSimilaritySymmetryAndSelf(t *testing.T) {
	a := []float32{0.3, 0.5, 0.2}
	b := []float32{0.1, 0.9, 0.4}

	if got, want := CosineSimilarity(a, b), CosineSimilarity(b, a); got != want {
		t.Fatalf("similarity not symmetric: %f vs %f", got, want)
	}
	if self := CosineSimilarity(a, a); math.Abs(self-1.0) > 1e-9 {
		t.Fatalf("self similarity expected ~1.0, got %f", self)
	}
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	a := []float32{0.3, 0.5, 0.2}

	if got := CosineSimilarity(a, []float32{0, 0, 0}); got != 0 {
		t.Fatalf("zero vector expected 0, got %f", got)
	}
	if got := CosineSimilarity(a, []float32{0.1, 0.2}); got != 0 {
		t.Fatalf("mismatched lengths expected 0, got %f", got)
	}
	if got := CosineSimilarity(nil, a); got != 0 {
		t.Fatalf("nil vector expected 0, got %f", got)
	}
}

func candidateWithScore(id string, score float64) domain.Candidate {
	return domain.Candidate{
		Document: domain.Document{ID: id, Name: id + ".txt"},
		Text:     "content of " + id,
		Score:    score,
	}
}

func TestRankCandidatesAppliesRelevanceFloor(t *testing.T) {
	in := []domain.Candidate{
		candidateWithScore("a", 0.42),
		candidateWithScore("b", 0.05),
		candidateWithScore("c", 0.10),
	}

	ranked := rankCandidates(in, 0.10, 5)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 survivor above floor, got %d", len(ranked))
	}
	if ranked[0].Document.ID != "a" {
		t.Fatalf("expected candidate a, got %s", ranked[0].Document.ID)
	}
}

func TestRankCandidatesTopKBoundAndOrder(t *testing.T) {
	in := []domain.Candidate{
		candidateWithScore("a", 0.30),
		candidateWithScore("b", 0.90),
		candidateWithScore("c", 0.50),
		candidateWithScore("d", 0.70),
		candidateWithScore("e", 0.60),
		candidateWithScore("f", 0.40),
		candidateWithScore("g", 0.80),
	}

	ranked := rankCandidates(in, 0.10, 5)
	if len(ranked) != 5 {
		t.Fatalf("expected top 5, got %d", len(ranked))
	}
	want := []string{"b", "g", "d", "e", "c"}
	for i, id := range want {
		if ranked[i].Document.ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, ranked[i].Document.ID)
		}
	}
}

func TestRankCandidatesTieBreaksByCatalogOrder(t *testing.T) {
	in := []domain.Candidate{
		candidateWithScore("first", 0.50),
		candidateWithScore("second", 0.50),
	}

	ranked := rankCandidates(in, 0.10, 5)
	if ranked[0].Document.ID != "first" || ranked[1].Document.ID != "second" {
		t.Fatalf("stable sort must preserve catalog order on ties: %s, %s",
			ranked[0].Document.ID, ranked[1].Document.ID)
	}
}

func TestRankCandidatesBoundsPromptContent(t *testing.T) {
	long := candidateWithScore("a", 0.9)
	long.Text = string(make([]rune, 6000))

	ranked := rankCandidates([]domain.Candidate{long}, 0.10, 5)
	if got := len([]rune(ranked[0].Text)); got != promptContentLimit {
		t.Fatalf("expected prompt content capped at %d, got %d", promptContentLimit, got)
	}
}
