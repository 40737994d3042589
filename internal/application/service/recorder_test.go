package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecap/internal/domain/entity"
)

// scriptedSurface returns canned results keyed by tool name.
type scriptedSurface struct {
	results map[string]entity.ToolResult
	calls   []entity.ToolCall
}

func (s *scriptedSurface) Definitions() []entity.ToolDefinition {
	return []entity.ToolDefinition{{Name: "navigate"}, {Name: "observe_page"}}
}

func (s *scriptedSurface) Execute(_ context.Context, call entity.ToolCall) entity.ToolResult {
	s.calls = append(s.calls, call)
	if res, ok := s.results[call.Name]; ok {
		return res
	}
	return entity.OKResult("ok")
}

// collectingSink gathers events; safe to read after the recorder closes.
type collectingSink struct {
	mu     sync.Mutex
	events []entity.StepEvent
	closed int
	errOn  bool
}

func (c *collectingSink) OnStep(ev entity.StepEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectingSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	if c.errOn {
		return errors.New("sink close failed")
	}
	return nil
}

func TestStepRecorder_PublishesOrderedEvents(t *testing.T) {
	surface := &scriptedSurface{results: map[string]entity.ToolResult{
		"navigate":     entity.OKResult("Navigated to https://example.com"),
		"observe_page": entity.FailResult("browser gone"),
	}}
	sink := &collectingSink{}
	rec := NewStepRecorder(surface, discardLogger{}, sink)

	ctx := context.Background()
	res := rec.Execute(ctx, entity.ToolCall{ID: "c1", Name: "navigate", Arguments: `{"url":"https://example.com"}`})
	assert.True(t, res.Success)
	res = rec.Execute(ctx, entity.ToolCall{ID: "c2", Name: "observe_page"})
	assert.False(t, res.Success)
	rec.Execute(ctx, entity.ToolCall{ID: "c3", Name: "navigate"})

	require.NoError(t, rec.Close())

	require.Len(t, sink.events, 3)
	for i, ev := range sink.events {
		assert.Equal(t, i+1, ev.Seq)
		assert.False(t, ev.StartedAt.IsZero())
		assert.GreaterOrEqual(t, ev.DurationMS, int64(0))
	}
	assert.Equal(t, entity.ToolName("navigate"), sink.events[0].Tool)
	assert.Equal(t, `{"url":"https://example.com"}`, sink.events[0].Arguments)
	assert.True(t, sink.events[0].Success)
	assert.False(t, sink.events[1].Success)
	assert.Equal(t, "browser gone", sink.events[1].Error)

	assert.Equal(t, 1, sink.closed)
}

func TestStepRecorder_StepsMirrorsEvents(t *testing.T) {
	surface := &scriptedSurface{}
	rec := NewStepRecorder(surface, discardLogger{})

	rec.Execute(context.Background(), entity.ToolCall{Name: "navigate"})
	rec.Execute(context.Background(), entity.ToolCall{Name: "observe_page"})

	steps := rec.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].Seq)
	assert.Equal(t, 2, steps[1].Seq)

	// The returned slice is a copy.
	steps[0].Seq = 99
	assert.Equal(t, 1, rec.Steps()[0].Seq)

	require.NoError(t, rec.Close())
}

func TestStepRecorder_FansOutToAllSinks(t *testing.T) {
	first := &collectingSink{errOn: true}
	second := &collectingSink{}
	rec := NewStepRecorder(&scriptedSurface{}, discardLogger{}, first, second)

	rec.Execute(context.Background(), entity.ToolCall{Name: "navigate"})
	require.NoError(t, rec.Close())

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, 1, first.closed, "a close error on one sink must not skip it")
	assert.Equal(t, 1, second.closed)
}

func TestStepRecorder_DefinitionsPassThrough(t *testing.T) {
	rec := NewStepRecorder(&scriptedSurface{}, discardLogger{})
	defs := rec.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "navigate", defs[0].Name)
	require.NoError(t, rec.Close())
}
