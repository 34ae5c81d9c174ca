package ports

import (
	"context"

	"github.com/workhub/intranet-assistant/internal/core/domain"
)

// AssistantService answers intranet chat messages grounded in approved documents.
type AssistantService interface {
	Status(ctx context.Context) (domain.ModelStatus, error)
	Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error)
	Stream(ctx context.Context, req domain.ChatRequest) (<-chan domain.StreamEvent, error)
}
