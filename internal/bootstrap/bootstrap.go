package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/workhub/intranet-assistant/internal/config"
	"github.com/workhub/intranet-assistant/internal/core/ports"
	"github.com/workhub/intranet-assistant/internal/core/usecase"
	"github.com/workhub/intranet-assistant/internal/infrastructure/catalog/postgres"
	"github.com/workhub/intranet-assistant/internal/infrastructure/extractor"
	"github.com/workhub/intranet-assistant/internal/infrastructure/llm/ollama"
	"github.com/workhub/intranet-assistant/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Catalog   ports.DocumentCatalog
	Assistant ports.AssistantService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	catalog := postgres.NewCatalogRepository(db)

	exec := resilience.NewExecutor(resilience.DefaultConfig())
	client := ollama.New(ollama.Config{
		BaseURL:    cfg.OllamaURL,
		GenModel:   cfg.OllamaGenModel,
		EmbedModel: cfg.OllamaEmbedModel,
		Options: ollama.GenerationOptions{
			Temperature: cfg.GenTemperature,
			NumCtx:      cfg.GenContextWindow,
			TopK:        cfg.GenTopK,
			Stop:        cfg.GenStopTokens,
		},
		GenTimeout:   time.Duration(cfg.GenTimeoutSec) * time.Second,
		EmbedTimeout: time.Duration(cfg.EmbedTimeoutSec) * time.Second,
	}, exec)

	assistant := usecase.NewAssistantUseCase(
		catalog,
		extractor.New(cfg.UploadDir),
		ollama.NewEmbedder(client),
		ollama.NewGenerator(client),
		ollama.NewProber(client),
		usecase.RetrievalLimits{
			TopK:          cfg.RAGTopK,
			MinSimilarity: cfg.RAGMinSimilarity,
			HistoryTurns:  cfg.RAGHistoryTurns,
		},
		log,
	)

	return &App{
		Config:    cfg,
		Catalog:   catalog,
		Assistant: assistant,

		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
