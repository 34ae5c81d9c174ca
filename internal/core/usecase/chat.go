package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/workhub/intranet-assistant/internal/core/domain"
	"github.com/workhub/intranet-assistant/internal/core/ports"
)

type RetrievalLimits struct {
	TopK          int
	MinSimilarity float64
	HistoryTurns  int
}

// AssistantUseCase runs the retrieval-augmented chat pipeline: catalog
// filter, per-candidate extraction and embedding, similarity ranking, prompt
// assembly and generation with post-hoc source attribution.
type AssistantUseCase struct {
	catalog   ports.DocumentCatalog
	extractor ports.TextExtractor
	embedder  ports.Embedder
	generator ports.Generator
	prober    ports.ModelProber
	limits    RetrievalLimits
	log       *slog.Logger
}

func NewAssistantUseCase(
	catalog ports.DocumentCatalog,
	extractor ports.TextExtractor,
	embedder ports.Embedder,
	generator ports.Generator,
	prober ports.ModelProber,
	limits RetrievalLimits,
	log *slog.Logger,
) *AssistantUseCase {
	if limits.TopK <= 0 {
		limits.TopK = 5
	}
	if limits.MinSimilarity <= 0 {
		limits.MinSimilarity = 0.10
	}
	if limits.HistoryTurns <= 0 {
		limits.HistoryTurns = 6
	}
	if log == nil {
		log = slog.Default()
	}

	return &AssistantUseCase{
		catalog:   catalog,
		extractor: extractor,
		embedder:  embedder,
		generator: generator,
		prober:    prober,
		limits:    limits,
		log:       log,
	}
}

func (uc *AssistantUseCase) Status(ctx context.Context) (domain.ModelStatus, error) {
	return uc.prober.CheckModel(ctx)
}

func (uc *AssistantUseCase) Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ranked, found, err := uc.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(req.Message, req.History, ranked, uc.limits.HistoryTurns)
	text, err := uc.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := attributeSources(text, ranked)
	return &domain.ChatResult{
		Message:        text,
		Sources:        sources,
		DocumentsFound: found,
		DocumentsUsed:  len(sources),
	}, nil
}

// Stream runs the same pipeline but forwards token deltas as they arrive.
// The fold over the upstream channel produces both the side-channel token
// events and the accumulated text that attribution needs.
func (uc *AssistantUseCase) Stream(ctx context.Context, req domain.ChatRequest) (<-chan domain.StreamEvent, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ranked, found, err := uc.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(req.Message, req.History, ranked, uc.limits.HistoryTurns)
	upstream, err := uc.generator.GenerateStream(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("open generation stream: %w", err)
	}

	out := make(chan domain.StreamEvent, 16)
	go func() {
		defer close(out)

		var acc strings.Builder
		for chunk := range upstream {
			if chunk.Err != nil {
				uc.log.Error("generation_stream_failed", "error", chunk.Err)
				emit(ctx, out, domain.StreamEvent{
					Type:    domain.EventError,
					Message: "generation failed mid-stream",
				})
				return
			}
			if chunk.Done {
				break
			}
			acc.WriteString(chunk.Content)
			if !emit(ctx, out, domain.StreamEvent{Type: domain.EventToken, Content: chunk.Content}) {
				return
			}
		}

		sources := attributeSources(acc.String(), ranked)
		emit(ctx, out, domain.StreamEvent{
			Type:           domain.EventMetadata,
			Sources:        sources,
			DocumentsFound: found,
			DocumentsUsed:  len(sources),
		})
	}()

	return out, nil
}

// retrieve produces the ranked candidate set. Catalog failures degrade to an
// empty context; a failed query embedding aborts the request because no
// ranking is possible without it.
func (uc *AssistantUseCase) retrieve(ctx context.Context, req domain.ChatRequest) ([]domain.Candidate, int, error) {
	user := domain.User{ID: req.UserID, Departments: req.Departments}

	docs, err := uc.catalog.FindEligible(ctx, user)
	if err != nil {
		uc.log.Warn("catalog_query_failed", "user_id", req.UserID, "error", err)
		docs = nil
	}

	type extracted struct {
		doc  domain.Document
		text string
	}
	seen := make(map[string]struct{}, len(docs))
	pending := make([]extracted, 0, len(docs))
	for _, doc := range docs {
		if doc.StorageKind != domain.StorageFile {
			continue
		}
		extraction := uc.extractor.Extract(ctx, doc)
		if extraction.Status == domain.ExtractionMissing {
			uc.log.Warn("candidate_file_unreachable", "document_id", doc.ID, "path", doc.StoragePath)
			continue
		}
		key := extraction.ResolvedPath
		if key == "" {
			key = filepath.Clean(doc.StoragePath)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		pending = append(pending, extracted{doc: doc, text: extraction.Text})
	}

	if len(pending) == 0 {
		return nil, 0, nil
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, req.Message)
	if err != nil || len(queryVector) == 0 {
		if err == nil {
			err = fmt.Errorf("empty query embedding")
		}
		return nil, 0, fmt.Errorf("embed query: %w", err)
	}

	// Sequential per candidate: at most one document's text resident at a
	// time, and the embedding endpoint is the bottleneck anyway.
	candidates := make([]domain.Candidate, 0, len(pending))
	for _, p := range pending {
		vector, err := uc.embedder.EmbedQuery(ctx, p.text)
		if err != nil || len(vector) == 0 {
			uc.log.Warn("candidate_embedding_failed", "document_id", p.doc.ID, "error", err)
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Document: p.doc,
			Text:     p.text,
			Vector:   vector,
			Score:    CosineSimilarity(queryVector, vector),
		})
	}

	return rankCandidates(candidates, uc.limits.MinSimilarity, uc.limits.TopK), len(pending), nil
}

func emit(ctx context.Context, out chan<- domain.StreamEvent, event domain.StreamEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func validateRequest(req domain.ChatRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("user_id is required"))
	}
	if strings.TrimSpace(req.Message) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("message is required"))
	}
	return nil
}
