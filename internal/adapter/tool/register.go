package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"sitecap/internal/domain/entity"
)

func (s *Surface) registerElement(args string) entity.ToolResult {
	var in struct {
		ElementID    string   `json:"element_id"`
		Description  string   `json:"description"`
		ElementType  string   `json:"element_type"`
		AllowMethods []string `json:"allow_methods"`
		Module       string   `json:"module"`
		Selector     string   `json:"selector"`
		XPath        string   `json:"xpath"`
		Text         string   `json:"text"`
		Global       bool     `json:"global"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return entity.FailResult("invalid register_element arguments: %v", err)
	}
	if strings.TrimSpace(in.ElementID) == "" {
		return entity.FailResult("element_id is required")
	}
	if strings.TrimSpace(in.Selector) == "" {
		return entity.FailResult("selector is required, observe_page reports one per element")
	}

	module := entity.ParseModule(in.Module)
	var note string
	if raw := strings.TrimSpace(in.Module); module == entity.ModuleUnknown && raw != "" && !strings.EqualFold(raw, "unknown") {
		s.logger.Warn("module outside the taxonomy, stored as unknown",
			"module", in.Module, "elementID", in.ElementID)
		note = fmt.Sprintf(". Module %q is not in the taxonomy, stored as %q", in.Module, entity.ModuleUnknown)
	}

	el := entity.ElementCapability{
		ElementID:    strings.TrimSpace(in.ElementID),
		Description:  strings.TrimSpace(in.Description),
		ElementType:  strings.TrimSpace(in.ElementType),
		AllowMethods: in.AllowMethods,
		Module:       module,
		Selector:     strings.TrimSpace(in.Selector),
		XPath:        strings.TrimSpace(in.XPath),
		Text:         strings.TrimSpace(in.Text),
	}

	scope, created := s.acc.RegisterElement(el, in.Global)
	verb := "Updated"
	if created {
		verb = "Registered"
	}
	return entity.OKResult("%s element %q in scope %q%s", verb, el.ElementID, scope, note)
}

func (s *Surface) setPageContext(ctx context.Context, args string) entity.ToolResult {
	var in struct {
		PageType    string `json:"page_type"`
		Description string `json:"description"`
		URLPattern  string `json:"url_pattern"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return entity.FailResult("invalid set_page_context arguments: %v", err)
	}
	pageType := strings.TrimSpace(in.PageType)
	if pageType == "" {
		return entity.FailResult("page_type is required")
	}

	pattern := strings.TrimSpace(in.URLPattern)
	if pattern == "" && !s.contextSet {
		pattern = s.cfg.DefaultURLPattern
	}
	var note string
	if pattern != "" {
		if _, err := regexp.Compile(pattern); err != nil {
			s.logger.Warn("invalid url_pattern dropped", "pageType", pageType, "pattern", pattern, "error", err)
			note = fmt.Sprintf(". Dropped url_pattern: not a valid regexp (%v)", err)
			pattern = ""
		}
	}

	created := s.acc.SetPageContext(pageType, strings.TrimSpace(in.Description), pattern)
	s.contextSet = true
	s.captureScreenshot(ctx, pageType)

	if created {
		return entity.OKResult("Created page context %q, registrations now target it%s", pageType, note)
	}
	return entity.OKResult("Selected existing page context %q, its recorded elements will be merged%s", pageType, note)
}
