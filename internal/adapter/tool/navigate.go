package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"sitecap/internal/domain/entity"
)

func (s *Surface) navigate(ctx context.Context, args string) entity.ToolResult {
	var in struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return entity.FailResult("invalid navigate arguments: %v", err)
	}
	if in.URL == "" {
		return entity.FailResult("url is required")
	}
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return entity.FailResult("url must be absolute http(s), got %q", in.URL)
	}

	info, err := s.browser.Navigate(ctx, in.URL)
	if err != nil {
		return entity.FailResult("navigate to %s: %v", in.URL, err)
	}

	body := fmt.Sprintf("Navigated to %s (title: %q)", info.URL, info.Title)
	if s.cfg.AutoScroll {
		passes, err := s.browser.ScrollToBottom(ctx)
		if err != nil {
			s.logger.Warn("auto-scroll after navigation failed", "error", err)
		} else if passes > 0 {
			body += fmt.Sprintf(". Auto-scrolled to the bottom in %d passes, lazy content should be loaded", passes)
		}
	}
	return entity.OKResult("%s", body)
}

func (s *Surface) scrollToBottom(ctx context.Context) entity.ToolResult {
	passes, err := s.browser.ScrollToBottom(ctx)
	if err != nil {
		return entity.FailResult("scroll_to_bottom: %v", err)
	}
	if passes == 0 {
		return entity.OKResult("Already at the bottom, page height did not change")
	}
	return entity.OKResult("Reached the page bottom after %d scroll passes", passes)
}

func (s *Surface) goBack(ctx context.Context) entity.ToolResult {
	info, err := s.browser.Back(ctx)
	if err != nil {
		return entity.FailResult("go_back: %v", err)
	}
	return entity.OKResult("Went back to %s (title: %q)", info.URL, info.Title)
}

func (s *Surface) wait(ctx context.Context, args string) entity.ToolResult {
	var in struct {
		Ms int `json:"ms"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return entity.FailResult("invalid wait arguments: %v", err)
	}
	if in.Ms <= 0 {
		in.Ms = 1000
	}

	d := time.Duration(in.Ms) * time.Millisecond
	clamped := false
	if d > s.cfg.MaxWait {
		d = s.cfg.MaxWait
		clamped = true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return entity.FailResult("wait interrupted: %v", ctx.Err())
	case <-timer.C:
	}

	if clamped {
		return entity.OKResult("Waited %dms (requested %dms, capped)", d.Milliseconds(), in.Ms)
	}
	return entity.OKResult("Waited %dms", d.Milliseconds())
}

func (s *Surface) scroll(ctx context.Context, args string) entity.ToolResult {
	var in struct {
		Direction string `json:"direction"`
		Amount    int    `json:"amount"`
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return entity.FailResult("invalid scroll arguments: %v", err)
	}
	switch in.Direction {
	case "up", "down", "top", "bottom":
	default:
		return entity.FailResult("unknown scroll direction %q (want up, down, top or bottom)", in.Direction)
	}

	if err := s.browser.Scroll(ctx, in.Direction, in.Amount); err != nil {
		return entity.FailResult("scroll %s: %v", in.Direction, err)
	}
	return entity.OKResult("Scrolled %s", in.Direction)
}
