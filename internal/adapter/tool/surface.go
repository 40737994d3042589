package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sitecap/internal/application/port/output"
	"sitecap/internal/application/service"
	"sitecap/internal/domain/entity"
)

// Surface implements the closed set of recording tools. Every call is
// dispatched through one exhaustive switch; there is no registry and no
// way to grow the set at runtime. Failures come back as ToolResults, so
// a bad argument or a dead selector never aborts the session.
type Surface struct {
	browser output.BrowserPort
	acc     *service.Accumulator
	logger  output.LoggerPort
	cfg     Config

	contextSet bool
}

type Config struct {
	// AutoScroll runs a scroll-to-bottom pass after each successful
	// navigation so lazy-loaded content is present before observation.
	AutoScroll bool
	// MaxWait caps the wait tool; larger requests are clamped.
	MaxWait time.Duration
	// DefaultURLPattern is inherited by the first page context of the
	// session when the tool call does not carry its own pattern.
	DefaultURLPattern string
	// ScreenshotDir enables page thumbnails on new page contexts when
	// non-empty.
	ScreenshotDir string
}

func DefaultConfig() Config {
	return Config{
		AutoScroll: true,
		MaxWait:    10 * time.Second,
	}
}

var _ output.ToolSurface = (*Surface)(nil)

func NewSurface(browser output.BrowserPort, acc *service.Accumulator, logger output.LoggerPort, cfg Config) *Surface {
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultConfig().MaxWait
	}
	return &Surface{
		browser: browser,
		acc:     acc,
		logger:  logger,
		cfg:     cfg,
	}
}

func (s *Surface) Execute(ctx context.Context, call entity.ToolCall) entity.ToolResult {
	args := strings.TrimSpace(call.Arguments)
	if args == "" {
		args = "{}"
	}

	switch entity.ToolName(call.Name) {
	case entity.ToolNavigate:
		return s.navigate(ctx, args)
	case entity.ToolScrollToBottom:
		return s.scrollToBottom(ctx)
	case entity.ToolObservePage:
		return s.observePage(ctx, args)
	case entity.ToolRegisterElement:
		return s.registerElement(args)
	case entity.ToolSetPageContext:
		return s.setPageContext(ctx, args)
	case entity.ToolGoBack:
		return s.goBack(ctx)
	case entity.ToolWait:
		return s.wait(ctx, args)
	case entity.ToolScroll:
		return s.scroll(ctx, args)
	default:
		s.logger.Warn("unknown tool requested", "name", call.Name)
		return entity.FailResult("unknown tool %q", call.Name)
	}
}

// captureScreenshot saves a page thumbnail for a freshly established page
// context. Best effort: failures are logged, never surfaced to the model.
func (s *Surface) captureScreenshot(ctx context.Context, pageType string) {
	if s.cfg.ScreenshotDir == "" {
		return
	}
	shot, err := s.browser.Screenshot(ctx)
	if err != nil {
		s.logger.Warn("page screenshot failed", "pageType", pageType, "error", err)
		return
	}
	if err := os.MkdirAll(s.cfg.ScreenshotDir, 0o755); err != nil {
		s.logger.Warn("screenshot dir", "error", err)
		return
	}
	path := filepath.Join(s.cfg.ScreenshotDir, sanitizeFileName(pageType)+"."+shot.Format)
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		s.logger.Warn("screenshot write failed", "path", path, "error", err)
		return
	}
	s.logger.Debug("page screenshot saved", "path", path, "width", shot.Width, "height", shot.Height)
}

func sanitizeFileName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "page"
	}
	if len(out) > 80 {
		out = out[:80]
	}
	return string(out)
}
