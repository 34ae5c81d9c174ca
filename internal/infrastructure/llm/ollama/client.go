package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/workhub/intranet-assistant/internal/core/domain"
	"github.com/workhub/intranet-assistant/internal/infrastructure/resilience"
)

// embedInputLimit bounds the text sent to the embedding model.
const embedInputLimit = 4000

type GenerationOptions struct {
	Temperature float64
	NumCtx      int
	TopK        int
	Stop        []string
}

type Config struct {
	BaseURL    string
	GenModel   string
	EmbedModel string
	Options    GenerationOptions

	// Generation is slow (minutes); embeddings gate per-candidate progress
	// and get a much shorter budget.
	GenTimeout   time.Duration
	EmbedTimeout time.Duration
}

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	opts       GenerationOptions

	genClient   *http.Client
	embedClient *http.Client
	exec        *resilience.Executor
}

func New(cfg Config, exec *resilience.Executor) *Client {
	if cfg.GenTimeout <= 0 {
		cfg.GenTimeout = 5 * time.Minute
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 30 * time.Second
	}
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		genModel:    cfg.GenModel,
		embedModel:  cfg.EmbedModel,
		opts:        cfg.Options,
		genClient:   &http.Client{Timeout: cfg.GenTimeout},
		embedClient: &http.Client{Timeout: cfg.EmbedTimeout},
		exec:        exec,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model":  e.client.embedModel,
		"prompt": truncateRunes(text, embedInputLimit),
	}

	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	err := e.client.exec.Execute(ctx, "embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, e.client.embedClient, "/api/embeddings", request, &response, "embed")
	}, classifyTransportError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	return response.Embedding, nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	// Single-shot on purpose: a replayed generation would bill minutes of
	// inference twice, so no retry executor here.
	err := g.client.postJSON(ctx, g.client.genClient, "/api/generate", g.client.generatePayload(prompt, false), &response, "generate")
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) generatePayload(prompt string, stream bool) map[string]any {
	options := map[string]any{
		"temperature": c.opts.Temperature,
		"num_ctx":     c.opts.NumCtx,
		"top_k":       c.opts.TopK,
	}
	if len(c.opts.Stop) > 0 {
		options["stop"] = c.opts.Stop
	}
	return map[string]any{
		"model":   c.genModel,
		"prompt":  prompt,
		"stream":  stream,
		"options": options,
	}
}

type Prober struct {
	client *Client
}

func NewProber(client *Client) *Prober {
	return &Prober{client: client}
}

// CheckModel probes the model-listing endpoint and reports whether the
// configured generation model is installed.
func (p *Prober) CheckModel(ctx context.Context) (domain.ModelStatus, error) {
	var response struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	err := p.client.exec.Execute(ctx, "probe", func(callCtx context.Context) error {
		return p.client.getJSON(callCtx, p.client.embedClient, "/api/tags", &response, "probe")
	}, classifyTransportError)
	if err != nil {
		return domain.ModelStatus{Status: "offline", Model: p.client.genModel}, nil
	}

	available := false
	for _, m := range response.Models {
		if m.Name == p.client.genModel || strings.TrimSuffix(m.Name, ":latest") == p.client.genModel {
			available = true
			break
		}
	}
	return domain.ModelStatus{
		Status:         "online",
		Model:          p.client.genModel,
		ModelAvailable: available,
	}, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
