package entity

// PageInfo is what the browser reports after navigation-like operations.
type PageInfo struct {
	URL   string
	Title string
}

// UIElement is one interactive element as observed on the live page,
// before the model decides whether to register it.
type UIElement struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	AriaLabel  string `json:"aria_label,omitempty"`
	Role       string `json:"role,omitempty"`
	Selector   string `json:"selector"`
	InViewport bool   `json:"in_viewport"`
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
