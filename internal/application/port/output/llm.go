package output

import (
	"context"

	"sitecap/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Tools       []entity.ToolDefinition
	Temperature float32
}

// ChatResponse carries the assistant message plus the token usage of the
// exchange. Usage may be estimated when the backend omits it.
type ChatResponse struct {
	Message entity.Message
	Usage   entity.TokenUsage
}
