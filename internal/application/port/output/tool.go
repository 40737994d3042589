package output

import (
	"context"

	"sitecap/internal/domain/entity"
)

// ToolSurface exposes the closed set of recording tools. Execute never
// returns a Go error: every outcome, including malformed arguments and
// browser failures, is a ToolResult the model can read and react to.
type ToolSurface interface {
	Definitions() []entity.ToolDefinition
	Execute(ctx context.Context, call entity.ToolCall) entity.ToolResult
}
