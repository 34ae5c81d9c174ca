package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/workhub/intranet-assistant/internal/core/domain"
	"github.com/workhub/intranet-assistant/internal/core/ports"
)

type catalogFake struct {
	docs []domain.Document
	err  error
}

func (f *catalogFake) FindEligible(context.Context, domain.User) ([]domain.Document, error) {
	return f.docs, f.err
}
func (f *catalogFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}

type extractorFake struct {
	missing map[string]bool
}

func (f *extractorFake) Extract(_ context.Context, doc domain.Document) domain.Extraction {
	if f.missing[doc.ID] {
		return domain.Extraction{Status: domain.ExtractionMissing}
	}
	return domain.Extraction{
		Status:       domain.ExtractionOK,
		Text:         "text of " + doc.ID,
		ResolvedPath: doc.StoragePath,
	}
}

type embedderFake struct {
	queryVector []float32
	queryErr    error
	vectors     map[string][]float32
	calls       int
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryVector, nil
}

type generatorFake struct {
	text      string
	err       error
	chunks    []ports.GenerationChunk
	streamErr error
	prompt    string
}

func (f *generatorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func (f *generatorFake) GenerateStream(_ context.Context, prompt string) (<-chan ports.GenerationChunk, error) {
	f.prompt = prompt
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan ports.GenerationChunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

type proberFake struct {
	status domain.ModelStatus
}

func (f *proberFake) CheckModel(context.Context) (domain.ModelStatus, error) {
	return f.status, nil
}

func fileDoc(id string) domain.Document {
	return domain.Document{
		ID:          id,
		Name:        id + ".txt",
		StorageKind: domain.StorageFile,
		StoragePath: "/uploads/" + id + ".txt",
		AIEnabled:   true,
	}
}

func newUseCase(catalog *catalogFake, extractor *extractorFake, embedder *embedderFake, generator *generatorFake) *AssistantUseCase {
	return NewAssistantUseCase(catalog, extractor, embedder, generator, &proberFake{}, RetrievalLimits{}, nil)
}

func TestAnswerWithoutEligibleDocumentsStillGenerates(t *testing.T) {
	embedder := &embedderFake{}
	generator := &generatorFake{text: "general answer"}
	uc := newUseCase(&catalogFake{}, &extractorFake{}, embedder, generator)

	result, err := uc.Answer(context.Background(), domain.ChatRequest{UserID: "u1", Message: "hello"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if len(result.Sources) != 0 {
		t.Fatalf("expected empty sources, got %v", result.Sources)
	}
	if !strings.Contains(generator.prompt, "No approved documents were found") {
		t.Fatalf("expected no-documents notice in prompt")
	}
	if embedder.calls != 0 {
		t.Fatalf("embedding must not run without candidates, got %d calls", embedder.calls)
	}
}

func TestAnswerDegradesWhenCatalogFails(t *testing.T) {
	generator := &generatorFake{text: "general answer"}
	uc := newUseCase(&catalogFake{err: errors.New("db down")}, &extractorFake{}, &embedderFake{}, generator)

	result, err := uc.Answer(context.Background(), domain.ChatRequest{UserID: "u1", Message: "hello"})
	if err != nil {
		t.Fatalf("catalog failure must not abort the request, got %v", err)
	}
	if result.DocumentsFound != 0 || len(result.Sources) != 0 {
		t.Fatalf("expected ungrounded result, got %+v", result)
	}
}

func TestAnswerFiltersAndRanksCandidates(t *testing.T) {
	catalog := &catalogFake{docs: []domain.Document{fileDoc("a"), fileDoc("b"), fileDoc("c")}}
	extractor := &extractorFake{missing: map[string]bool{"b": true}}
	embedder := &embedderFake{
		queryVector: []float32{1, 0},
		vectors: map[string][]float32{
			"text of a": {1, 1},    // cosine 0.707, survives
			"text of c": {0.05, 1}, // cosine ~0.05, below floor
		},
	}
	generator := &generatorFake{text: "Per Document 1, the policy says so."}
	uc := newUseCase(catalog, extractor, embedder, generator)

	result, err := uc.Answer(context.Background(), domain.ChatRequest{UserID: "u1", Message: "policy?"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.DocumentsFound != 2 {
		t.Fatalf("expected 2 extractable candidates, got %d", result.DocumentsFound)
	}
	if len(result.Sources) != 1 || result.Sources[0].DocumentID != "a" {
		t.Fatalf("expected single attributed source a, got %v", result.Sources)
	}
	if strings.Contains(generator.prompt, "text of c") {
		t.Fatalf("below-floor candidate must not reach the prompt")
	}
}

func TestAnswerDeduplicatesByResolvedPath(t *testing.T) {
	shared := fileDoc("a")
	alias := fileDoc("a2")
	alias.StoragePath = shared.StoragePath

	catalog := &catalogFake{docs: []domain.Document{shared, alias}}
	embedder := &embedderFake{
		queryVector: []float32{1, 0},
		vectors: map[string][]float32{
			"text of a":  {1, 1},
			"text of a2": {1, 1},
		},
	}
	generator := &generatorFake{text: "Document 1 says so."}
	uc := newUseCase(catalog, &extractorFake{}, embedder, generator)

	result, err := uc.Answer(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.DocumentsFound != 1 {
		t.Fatalf("same resolved path must yield one candidate, got %d", result.DocumentsFound)
	}
}

func TestAnswerFailsFastOnQueryEmbeddingError(t *testing.T) {
	catalog := &catalogFake{docs: []domain.Document{fileDoc("a")}}
	embedder := &embedderFake{queryErr: errors.New("embedder down")}
	generator := &generatorFake{text: "should not run"}
	uc := newUseCase(catalog, &extractorFake{}, embedder, generator)

	_, err := uc.Answer(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"})
	if err == nil {
		t.Fatalf("expected error when query embedding fails")
	}
	if generator.prompt != "" {
		t.Fatalf("generation must not be attempted after query embedding failure")
	}
}

func TestAnswerRejectsEmptyMessage(t *testing.T) {
	uc := newUseCase(&catalogFake{}, &extractorFake{}, &embedderFake{}, &generatorFake{})

	_, err := uc.Answer(context.Background(), domain.ChatRequest{UserID: "u1", Message: "  "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStreamDeliversTokensThenMetadataLast(t *testing.T) {
	catalog := &catalogFake{docs: []domain.Document{fileDoc("a")}}
	embedder := &embedderFake{
		queryVector: []float32{1, 0},
		vectors:     map[string][]float32{"text of a": {1, 1}},
	}
	generator := &generatorFake{chunks: []ports.GenerationChunk{
		{Content: "Per "},
		{Content: "Document 1 "},
		{Content: "the policy applies."},
		{Done: true},
	}}
	uc := newUseCase(catalog, &extractorFake{}, embedder, generator)

	stream, err := uc.Stream(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var events []domain.StreamEvent
	for event := range stream {
		events = append(events, event)
	}
	if len(events) != 4 {
		t.Fatalf("expected 3 token events and 1 metadata event, got %d", len(events))
	}
	tokens := []string{"Per ", "Document 1 ", "the policy applies."}
	for i, want := range tokens {
		if events[i].Type != domain.EventToken || events[i].Content != want {
			t.Fatalf("event %d: expected token %q, got %+v", i, want, events[i])
		}
	}
	last := events[3]
	if last.Type != domain.EventMetadata {
		t.Fatalf("final event must be metadata, got %+v", last)
	}
	if last.DocumentsUsed != 1 || len(last.Sources) != 1 || last.Sources[0].DocumentID != "a" {
		t.Fatalf("expected attributed source in metadata, got %+v", last)
	}
}

func TestStreamEmitsTerminalErrorEvent(t *testing.T) {
	catalog := &catalogFake{docs: []domain.Document{fileDoc("a")}}
	embedder := &embedderFake{
		queryVector: []float32{1, 0},
		vectors:     map[string][]float32{"text of a": {1, 1}},
	}
	generator := &generatorFake{chunks: []ports.GenerationChunk{
		{Content: "partial "},
		{Done: true, Err: errors.New("connection lost")},
	}}
	uc := newUseCase(catalog, &extractorFake{}, embedder, generator)

	stream, err := uc.Stream(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var events []domain.StreamEvent
	for event := range stream {
		events = append(events, event)
	}
	if len(events) != 2 {
		t.Fatalf("expected token then error event, got %d", len(events))
	}
	if events[1].Type != domain.EventError || events[1].Message == "" {
		t.Fatalf("expected terminal error event, got %+v", events[1])
	}
}

func TestStreamFailureBeforeStartIsRequestLevel(t *testing.T) {
	generator := &generatorFake{streamErr: errors.New("refused")}
	uc := newUseCase(&catalogFake{}, &extractorFake{}, &embedderFake{}, generator)

	if _, err := uc.Stream(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"}); err == nil {
		t.Fatalf("expected request-level error before streaming starts")
	}
}
