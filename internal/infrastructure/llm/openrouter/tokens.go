package openrouter

import (
	"sync"

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		enc, _ = tiktoken.GetEncoding(fallbackEncoding)
	})
	return enc
}

// estimateUsage approximates token usage client side. The counts are
// not exact for every model, but close enough for budget reporting.
func estimateUsage(req output.ChatRequest, reply entity.Message) entity.TokenUsage {
	input := 0
	for _, msg := range req.Messages {
		input += countTokens(msg.Content)
		for _, tc := range msg.ToolCalls {
			input += countTokens(tc.Name) + countTokens(tc.Arguments)
		}
	}
	for _, tool := range req.Tools {
		input += countTokens(tool.Name) + countTokens(tool.Description)
	}

	out := countTokens(reply.Content)
	for _, tc := range reply.ToolCalls {
		out += countTokens(tc.Name) + countTokens(tc.Arguments)
	}

	return entity.TokenUsage{
		Input:  input,
		Output: out,
		Total:  input + out,
	}
}

func countTokens(s string) int {
	if s == "" {
		return 0
	}
	if e := encoder(); e != nil {
		return len(e.Encode(s, nil, nil))
	}
	// The encoding asset can be unavailable offline.
	return len(s) / 4
}
