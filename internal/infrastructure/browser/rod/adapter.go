package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*Browser)(nil)

// Browser drives one Chromium page for a recording session.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
}

type Config struct {
	Headless   bool
	Stealth    bool
	SlowMotion time.Duration
	// Timeout bounds individual page operations (navigation, element
	// lookup), not the session.
	Timeout   time.Duration
	NoSandbox bool
	DevTools  bool
}

func DefaultConfig() Config {
	return Config{
		Headless:  true,
		Timeout:   15 * time.Second,
		NoSandbox: true,
	}
}

const (
	idleTimeout         = 5 * time.Second
	scrollSettleTimeout = 1 * time.Second
	maxScrollPasses     = 12
	maxUIElements       = 500
	maxPageText         = 4000
)

func New(ctx context.Context, cfg Config) (*Browser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().
		Context(ctx).
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &Browser{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

func (b *Browser) Navigate(ctx context.Context, rawURL string) (*entity.PageInfo, error) {
	page := b.page.Context(ctx)
	if err := page.Timeout(b.timeout).Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	// A slow load is not fatal: observation reads whatever rendered.
	_ = page.Timeout(b.timeout).WaitLoad()
	_ = page.WaitIdle(idleTimeout)
	return b.Info(ctx)
}

func (b *Browser) Back(ctx context.Context) (*entity.PageInfo, error) {
	page := b.page.Context(ctx)
	if err := page.NavigateBack(); err != nil {
		return nil, fmt.Errorf("navigate back: %w", err)
	}
	_ = page.Timeout(b.timeout).WaitLoad()
	_ = page.WaitIdle(idleTimeout)
	return b.Info(ctx)
}

func (b *Browser) Scroll(ctx context.Context, direction string, amountPx int) error {
	page := b.page.Context(ctx)

	var err error
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		if amountPx > 0 {
			_, err = page.Eval(`(px) => window.scrollBy(0, px)`, amountPx)
		} else {
			_, err = page.Eval(`() => window.scrollBy(0, window.innerHeight)`)
		}
	case "up":
		if amountPx > 0 {
			_, err = page.Eval(`(px) => window.scrollBy(0, -px)`, amountPx)
		} else {
			_, err = page.Eval(`() => window.scrollBy(0, -window.innerHeight)`)
		}
	case "top":
		_, err = page.Eval(`() => window.scrollTo(0, 0)`)
	case "bottom":
		_, err = page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}
	if err != nil {
		return fmt.Errorf("scroll %s: %w", direction, err)
	}

	_ = page.WaitIdle(scrollSettleTimeout)
	return nil
}

// ScrollToBottom scrolls in passes until the document height stops
// growing, so infinite feeds terminate after maxScrollPasses.
func (b *Browser) ScrollToBottom(ctx context.Context) (int, error) {
	page := b.page.Context(ctx)

	height, atBottom, err := scrollState(page)
	if err != nil {
		return 0, err
	}

	passes := 0
	for !atBottom && passes < maxScrollPasses {
		if err := ctx.Err(); err != nil {
			return passes, err
		}
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return passes, fmt.Errorf("scroll to bottom: %w", err)
		}
		passes++
		_ = page.WaitIdle(scrollSettleTimeout)

		prev := height
		height, atBottom, err = scrollState(page)
		if err != nil {
			return passes, err
		}
		if atBottom && height > prev {
			// The page grew under us, keep going.
			atBottom = false
		}
	}
	return passes, nil
}

func scrollState(page *rod.Page) (int, bool, error) {
	res, err := page.Eval(`() => {
		const height = document.body ? document.body.scrollHeight : 0;
		return {
			height: height,
			bottom: window.innerHeight + Math.ceil(window.scrollY) >= height,
		};
	}`)
	if err != nil {
		return 0, false, fmt.Errorf("scroll state: %w", err)
	}
	return res.Value.Get("height").Int(), res.Value.Get("bottom").Bool(), nil
}

func (b *Browser) Info(ctx context.Context) (*entity.PageInfo, error) {
	info, err := b.page.Context(ctx).Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}
	return &entity.PageInfo{URL: info.URL, Title: info.Title}, nil
}

func (b *Browser) PageText(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return ExtractText(html, maxPageText), nil
}

// elementGroups are the queries observation runs, in priority order.
// Buttons first so the element cap trims links, not controls.
var elementGroups = []struct {
	selector string
	typ      string
}{
	{"button, [role='button'], input[type='submit'], input[type='button']", "button"},
	{"input:not([type='submit']):not([type='button']):not([type='hidden']), textarea", "input"},
	{"select", "select"},
	{"a[href]", "link"},
}

func (b *Browser) UIElements(ctx context.Context, scope string) ([]entity.UIElement, error) {
	page := b.page.Context(ctx)

	query := page.Elements
	if scope != "" {
		root, err := page.Timeout(2 * time.Second).Element(scope)
		if err != nil {
			// The region is not on this page: nothing to observe.
			return nil, nil
		}
		query = root.Elements
	}

	var result []entity.UIElement
	seen := make(map[string]bool)
	counter := 0

	add := func(el *rod.Element, typ string) {
		if el == nil || counter >= maxUIElements {
			return
		}

		visible, err := el.Visible()
		if err != nil || !visible {
			return
		}

		selector, err := cssSelector(el)
		if err != nil || selector == "" || seen[selector] {
			return
		}
		seen[selector] = true

		text, _ := el.Text()
		text = strings.TrimSpace(text)
		if len(text) > 120 {
			text = text[:120]
		}
		aria, _ := el.Attribute("aria-label")
		role, _ := el.Attribute("role")
		if text == "" && typ == "input" {
			if placeholder, _ := el.Attribute("placeholder"); placeholder != nil {
				text = *placeholder
			}
		}

		result = append(result, entity.UIElement{
			ID:         fmt.Sprintf("ui-%04d", counter),
			Type:       typ,
			Text:       text,
			AriaLabel:  ptrToString(aria),
			Role:       ptrToString(role),
			Selector:   selector,
			InViewport: inViewport(el),
		})
		counter++
	}

	for _, group := range elementGroups {
		elements, err := query(group.selector)
		if err != nil {
			continue
		}
		for _, el := range elements {
			add(el, group.typ)
		}
	}

	return result, nil
}

// cssSelector builds a short selector path for an element, preferring
// ids and falling back to tag names with nth-of-type disambiguation.
func cssSelector(el *rod.Element) (string, error) {
	res, err := el.Eval(`() => {
		const esc = (v) => (window.CSS && CSS.escape) ? CSS.escape(v) : v;
		let el = this;
		if (el.id) return '#' + esc(el.id);
		const parts = [];
		while (el && el.nodeType === Node.ELEMENT_NODE && parts.length < 6) {
			let part = el.tagName.toLowerCase();
			if (el.id) {
				parts.unshift(part + '#' + esc(el.id));
				break;
			}
			const parent = el.parentElement;
			if (parent) {
				const same = Array.from(parent.children).filter(c => c.tagName === el.tagName);
				if (same.length > 1) part += ':nth-of-type(' + (same.indexOf(el) + 1) + ')';
			}
			parts.unshift(part);
			el = parent;
		}
		return parts.join(' > ');
	}`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func inViewport(el *rod.Element) bool {
	res, err := el.Eval(`() => {
		const rect = this.getBoundingClientRect();
		return rect.top < window.innerHeight && rect.bottom >= 0 &&
			rect.left < window.innerWidth && rect.right >= 0;
	}`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (b *Browser) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := b.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *Browser) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *Browser) Close() {
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func ptrToString(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}
