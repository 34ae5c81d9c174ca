package ports

import (
	"context"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

// DocumentCatalog reads the intranet documents table. The pipeline never writes.
type DocumentCatalog interface {
	FindEligible(ctx context.Context, user domain.User) ([]domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// TextExtractor produces a bounded plain-text representation of a document.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.Document) domain.Extraction
}

// Embedder builds a vector for query or candidate text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GenerationChunk is one fragment of a streamed model response.
type GenerationChunk struct {
	Content string
	Done    bool
	Err     error
}

// Generator calls the generative model endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string) (<-chan GenerationChunk, error)
}

// ModelProber checks the generation service's model listing.
type ModelProber interface {
	CheckModel(ctx context.Context) (domain.ModelStatus, error)
}
