package tool

import (
	"sitecap/internal/domain/entity"
)

// Definitions returns the schema of all eight recording tools in the
// order they are presented to the model.
func (s *Surface) Definitions() []entity.ToolDefinition {
	return []entity.ToolDefinition{
		{
			Name:        entity.ToolNavigate.String(),
			Description: "Navigate the browser to a URL. Accepts absolute http(s) URLs only and returns the final URL after redirects plus the page title. When auto-scroll is on, the page is scrolled to the bottom once so lazy-loaded content is present. Use this as the first step of a session and whenever you need a different page.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "Absolute URL to open, e.g. https://example.com/search",
					},
				},
				"required": []string{"url"},
			},
		},
		{
			Name:        entity.ToolScrollToBottom.String(),
			Description: "Scroll the page to the very bottom in repeated passes until its height stops growing, triggering lazy loading on the way. Idempotent: calling it again on a fully loaded page reports zero passes. Use before observe_page on long pages.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
				"required":   []string{},
			},
		},
		{
			Name:        entity.ToolObservePage.String(),
			Description: "Observe the current page: URL, title, the visible interactive elements (buttons, links, inputs, selects) with their text and a CSS selector for each, and a short text preview. Read-only, records nothing. Set 'module' to look only inside one page region, set 'focus' to filter elements by keyword. This is your main source of selectors for register_element.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"focus": map[string]interface{}{
						"type":        "string",
						"description": "Optional keyword, only elements whose text, label or selector contains it are listed",
					},
					"module": map[string]interface{}{
						"type":        "string",
						"enum":        moduleEnum(),
						"description": "Optional page region to observe instead of the whole page",
					},
				},
				"required": []string{},
			},
		},
		{
			Name:        entity.ToolRegisterElement.String(),
			Description: "Record one interactive element into the capability document of the active page context. This is the only tool that writes to the document. Registering an element_id that already exists in the same scope overwrites that entry instead of adding a second one, so re-register freely to improve a description or selector. Set 'global' for elements that appear on every page of the site (cookie banners, login buttons in the header).",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"element_id": map[string]interface{}{
						"type":        "string",
						"description": "Stable snake_case identifier, unique within the page, e.g. 'search_submit_button'",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "What the element does and when an automation client would use it",
					},
					"element_type": map[string]interface{}{
						"type":        "string",
						"description": "Kind of control: button, link, input, select, textarea, checkbox, ...",
					},
					"allow_methods": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Interaction methods the element supports, e.g. [\"click\"], [\"fill\",\"submit\"]",
					},
					"module": map[string]interface{}{
						"type":        "string",
						"enum":        moduleEnum(),
						"description": "Page region the element lives in; use 'unknown' when unsure",
					},
					"selector": map[string]interface{}{
						"type":        "string",
						"description": "CSS selector that uniquely finds the element, as reported by observe_page",
					},
					"xpath": map[string]interface{}{
						"type":        "string",
						"description": "Optional XPath alternative to the CSS selector",
					},
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Optional visible text of the element",
					},
					"global": map[string]interface{}{
						"type":        "boolean",
						"description": "Record into the domain-wide scope instead of the active page",
						"default":     false,
					},
				},
				"required": []string{"element_id", "description", "selector"},
			},
		},
		{
			Name:        entity.ToolSetPageContext.String(),
			Description: "Create or select the page context that subsequent register_element calls target. Call this after landing on a page and before registering anything on it. Reusing a page_type from an earlier session merges into that page. page_type is a stable snake_case name derived from the domain and the page's role, e.g. 'airbnb_com_main' or 'airbnb_com_search_results'.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"page_type": map[string]interface{}{
						"type":        "string",
						"description": "Stable page identifier, e.g. 'example_com_main'",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "One or two sentences on what the page is for",
					},
					"url_pattern": map[string]interface{}{
						"type":        "string",
						"description": "Optional regexp matching URLs of this page type, e.g. '^https://example\\\\.com/items/\\\\d+$'",
					},
				},
				"required": []string{"page_type", "description"},
			},
		},
		{
			Name:        entity.ToolGoBack.String(),
			Description: "Go back one step in the browser history, like the browser back button. Returns the URL and title landed on. Use after following a link that led away from the page being recorded.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
				"required":   []string{},
			},
		},
		{
			Name:        entity.ToolWait.String(),
			Description: "Pause for the given number of milliseconds (default 1000, capped) to let dynamic content settle. Prefer this over repeated observe_page calls when a page is still loading.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ms": map[string]interface{}{
						"type":        "number",
						"description": "Milliseconds to wait, default 1000",
					},
				},
				"required": []string{},
			},
		},
		{
			Name:        entity.ToolScroll.String(),
			Description: "Scroll the viewport: 'down'/'up' move one viewport (or 'amount' pixels), 'top'/'bottom' jump to the page edges. Use to bring below-the-fold regions into view before observing them.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"up", "down", "top", "bottom"},
						"description": "Scroll direction",
					},
					"amount": map[string]interface{}{
						"type":        "number",
						"description": "Optional distance in pixels for up/down, defaults to one viewport",
					},
				},
				"required": []string{"direction"},
			},
		},
	}
}

func moduleEnum() []string {
	modules := entity.Modules()
	out := make([]string, 0, len(modules))
	for _, m := range modules {
		out = append(out, m.String())
	}
	return out
}
