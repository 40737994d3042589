package observer

import (
	"fmt"
	"io"

	"sitecap/internal/application/service"
	"sitecap/internal/domain/entity"
)

var _ service.StepSink = (*ConsoleSink)(nil)

// ConsoleSink prints one progress line per executed tool call.
type ConsoleSink struct {
	w io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) OnStep(ev entity.StepEvent) {
	status := "ok"
	if !ev.Success {
		status = "error"
	}

	line := fmt.Sprintf("  [%02d] %-18s %-5s %4dms", ev.Seq, ev.Tool, status, ev.DurationMS)
	if ev.Error != "" {
		line += "  " + ev.Error
	}
	fmt.Fprintln(s.w, line)
}

func (s *ConsoleSink) Close() error {
	return nil
}
