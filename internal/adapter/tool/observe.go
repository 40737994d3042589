package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sitecap/internal/domain/entity"
)

const (
	maxObservedElements = 150
	maxTextPreview      = 1200
)

// moduleScopes maps the page-region taxonomy onto CSS selectors used to
// narrow observation. ModuleUnknown stays unmapped: it means "anywhere".
var moduleScopes = map[entity.Module]string{
	entity.ModuleHeader:     "header, [role='banner']",
	entity.ModuleFooter:     "footer, [role='contentinfo']",
	entity.ModuleSidebar:    "aside, [role='complementary']",
	entity.ModuleNavibar:    "nav, [role='navigation']",
	entity.ModuleMain:       "main, [role='main']",
	entity.ModuleModal:      "dialog, [role='dialog'], [aria-modal='true']",
	entity.ModuleBreadcrumb: "[aria-label='breadcrumb' i], .breadcrumb, [class*='breadcrumb']",
	entity.ModuleTab:        "[role='tablist']",
}

func (s *Surface) observePage(ctx context.Context, args string) entity.ToolResult {
	var in struct {
		Focus  string `json:"focus"`
		Module string `json:"module"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return entity.FailResult("invalid observe_page arguments: %v", err)
	}

	var notes []string
	scope := ""
	if m := strings.TrimSpace(in.Module); m != "" {
		parsed := entity.ParseModule(m)
		if parsed == entity.ModuleUnknown && !strings.EqualFold(m, "unknown") {
			s.logger.Warn("observe_page got module outside the taxonomy", "module", m)
			notes = append(notes, fmt.Sprintf("module %q is not in the taxonomy, observed the whole page instead", m))
		} else {
			scope = moduleScopes[parsed]
		}
	}

	info, err := s.browser.Info(ctx)
	if err != nil {
		return entity.FailResult("observe_page: %v", err)
	}

	elements, err := s.browser.UIElements(ctx, scope)
	if err != nil {
		return entity.FailResult("observe_page: %v", err)
	}
	if scope != "" && len(elements) == 0 {
		notes = append(notes, fmt.Sprintf("no visible elements inside the %q region, it may not exist on this page", in.Module))
	}

	if focus := strings.TrimSpace(in.Focus); focus != "" {
		elements = filterByFocus(elements, focus)
		notes = append(notes, fmt.Sprintf("filtered by focus %q", focus))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PAGE OBSERVATION\n\nURL: %s\nTitle: %s\nInteractive elements: %d\n", info.URL, info.Title, len(elements))
	for _, n := range notes {
		fmt.Fprintf(&b, "Note: %s\n", n)
	}
	b.WriteString("\nELEMENTS:\n")

	shown := 0
	for _, el := range elements {
		if shown >= maxObservedElements {
			fmt.Fprintf(&b, "... and %d more (scroll or use focus/module to narrow down)\n", len(elements)-shown)
			break
		}
		label := el.Text
		if label == "" {
			label = el.AriaLabel
		}
		if label == "" {
			label = "(no text)"
		}
		viewport := ""
		if !el.InViewport {
			viewport = ", below the fold"
		}
		fmt.Fprintf(&b, "- [%s] %s: %q (selector: %s%s)\n", el.ID, el.Type, label, el.Selector, viewport)
		shown++
	}

	if text, err := s.browser.PageText(ctx); err == nil && text != "" {
		if len(text) > maxTextPreview {
			text = text[:maxTextPreview] + "..."
		}
		fmt.Fprintf(&b, "\nPAGE CONTENT PREVIEW:\n%s\n", text)
	}

	return entity.OKResult("%s", b.String())
}

func filterByFocus(elements []entity.UIElement, focus string) []entity.UIElement {
	focus = strings.ToLower(focus)
	out := make([]entity.UIElement, 0, len(elements))
	for _, el := range elements {
		if strings.Contains(strings.ToLower(el.Text), focus) ||
			strings.Contains(strings.ToLower(el.AriaLabel), focus) ||
			strings.Contains(strings.ToLower(el.Selector), focus) {
			out = append(out, el)
		}
	}
	return out
}
