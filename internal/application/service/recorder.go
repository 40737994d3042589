package service

import (
	"context"
	"time"

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"
)

// StepSink consumes step events. Implementations must not block for long:
// the drain goroutine delivers to all sinks in order.
type StepSink interface {
	OnStep(ev entity.StepEvent)
	Close() error
}

// StepRecorder wraps a tool surface and publishes one StepEvent per
// executed call. Events flow through an explicit channel: Execute sends
// in call order, a single drain goroutine fans out to the sinks, and
// Close joins the drain after the last event. The recorder also retains
// the ordered event list for the session result.
type StepRecorder struct {
	surface output.ToolSurface
	logger  output.LoggerPort

	events chan entity.StepEvent
	done   chan struct{}
	sinks  []StepSink

	seq   int
	steps []entity.StepEvent
}

var _ output.ToolSurface = (*StepRecorder)(nil)

func NewStepRecorder(surface output.ToolSurface, logger output.LoggerPort, sinks ...StepSink) *StepRecorder {
	r := &StepRecorder{
		surface: surface,
		logger:  logger,
		events:  make(chan entity.StepEvent, 64),
		done:    make(chan struct{}),
		sinks:   sinks,
	}
	go r.drain()
	return r
}

func (r *StepRecorder) Definitions() []entity.ToolDefinition {
	return r.surface.Definitions()
}

// Execute runs the call and emits its event before returning, so a
// session's audit trail is always at least as current as its transcript.
func (r *StepRecorder) Execute(ctx context.Context, call entity.ToolCall) entity.ToolResult {
	started := time.Now()
	result := r.surface.Execute(ctx, call)

	r.seq++
	ev := entity.StepEvent{
		Seq:        r.seq,
		Tool:       entity.ToolName(call.Name),
		Arguments:  call.Arguments,
		Success:    result.Success,
		Error:      result.Error,
		StartedAt:  started.UTC(),
		DurationMS: time.Since(started).Milliseconds(),
	}
	r.steps = append(r.steps, ev)
	r.events <- ev

	return result
}

// Steps returns the events recorded so far, in execution order. Call from
// the session goroutine only.
func (r *StepRecorder) Steps() []entity.StepEvent {
	out := make([]entity.StepEvent, len(r.steps))
	copy(out, r.steps)
	return out
}

// Close flushes pending events to the sinks, closes them, and joins the
// drain goroutine. No Execute may be in flight or follow.
func (r *StepRecorder) Close() error {
	close(r.events)
	<-r.done
	return nil
}

func (r *StepRecorder) drain() {
	for ev := range r.events {
		for _, s := range r.sinks {
			s.OnStep(ev)
		}
	}
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && r.logger != nil {
			r.logger.Warn("step sink close failed", "error", err)
		}
	}
	close(r.done)
}
