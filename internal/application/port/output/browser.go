package output

import (
	"context"

	"sitecap/internal/domain/entity"
)

// BrowserPort is the controlled browser surface a recording session works
// through. One page per session; calls are serialized by the caller.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) (*entity.PageInfo, error)
	Back(ctx context.Context) (*entity.PageInfo, error)
	Scroll(ctx context.Context, direction string, amountPx int) error
	// ScrollToBottom scrolls in passes until the page height stabilizes
	// and reports how many passes it took.
	ScrollToBottom(ctx context.Context) (int, error)

	Info(ctx context.Context) (*entity.PageInfo, error)
	// PageText returns the page's visible text, compacted and bounded.
	PageText(ctx context.Context) (string, error)
	// UIElements lists visible interactive elements. A non-empty scope
	// restricts the query to the first element matching that CSS selector.
	UIElements(ctx context.Context, scope string) ([]entity.UIElement, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}
