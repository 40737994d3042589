package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecap/internal/application/port/output"
	"sitecap/internal/application/service"
	"sitecap/internal/domain/entity"
)

type quietLogger struct{}

func (quietLogger) Debug(string, ...any)                        {}
func (quietLogger) Info(string, ...any)                         {}
func (quietLogger) Warn(string, ...any)                         {}
func (quietLogger) Error(string, ...any)                        {}
func (quietLogger) WithField(string, any) output.LoggerPort     { return quietLogger{} }
func (quietLogger) WithFields(map[string]any) output.LoggerPort { return quietLogger{} }
func (quietLogger) Close() error                                { return nil }

// fakeBrowser scripts the browser port. Zero values answer happily; set
// err fields to make operations fail.
type fakeBrowser struct {
	info     entity.PageInfo
	elements []entity.UIElement
	pageText string
	passes   int

	navErr    error
	scrollErr error
	backErr   error

	navigatedTo  string
	backCalls    int
	scopeQueries []string
	scrolls      []string
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) (*entity.PageInfo, error) {
	if f.navErr != nil {
		return nil, f.navErr
	}
	f.navigatedTo = url
	info := f.info
	if info.URL == "" {
		info.URL = url
	}
	return &info, nil
}

func (f *fakeBrowser) Back(context.Context) (*entity.PageInfo, error) {
	if f.backErr != nil {
		return nil, f.backErr
	}
	f.backCalls++
	info := f.info
	return &info, nil
}

func (f *fakeBrowser) Scroll(_ context.Context, direction string, _ int) error {
	if f.scrollErr != nil {
		return f.scrollErr
	}
	f.scrolls = append(f.scrolls, direction)
	return nil
}

func (f *fakeBrowser) ScrollToBottom(context.Context) (int, error) {
	if f.scrollErr != nil {
		return 0, f.scrollErr
	}
	return f.passes, nil
}

func (f *fakeBrowser) Info(context.Context) (*entity.PageInfo, error) {
	info := f.info
	return &info, nil
}

func (f *fakeBrowser) PageText(context.Context) (string, error) { return f.pageText, nil }

func (f *fakeBrowser) UIElements(_ context.Context, scope string) ([]entity.UIElement, error) {
	f.scopeQueries = append(f.scopeQueries, scope)
	return f.elements, nil
}

func (f *fakeBrowser) Screenshot(context.Context) (*entity.Screenshot, error) {
	return nil, errors.New("no screenshot in tests")
}

func (f *fakeBrowser) CurrentURL() string { return f.info.URL }
func (f *fakeBrowser) Close()             {}

type surfaceFixture struct {
	browser *fakeBrowser
	acc     *service.Accumulator
	surface *Surface
}

func newSurfaceFixture(cfg Config) *surfaceFixture {
	browser := &fakeBrowser{
		info: entity.PageInfo{URL: "https://example.com/", Title: "Example"},
	}
	acc := service.NewAccumulator(nil, "example.com", "sess-t", entity.MergeRetain, quietLogger{})
	return &surfaceFixture{
		browser: browser,
		acc:     acc,
		surface: NewSurface(browser, acc, quietLogger{}, cfg),
	}
}

func exec(s *Surface, name, args string) entity.ToolResult {
	return s.Execute(context.Background(), entity.ToolCall{ID: "c", Name: name, Arguments: args})
}

func TestSurface_UnknownTool(t *testing.T) {
	f := newSurfaceFixture(Config{})
	res := exec(f.surface, "teleport", "{}")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown tool")
	assert.Contains(t, res.Observation(), "ERROR:")
}

func TestSurface_Navigate(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "navigate", `{"url":"https://example.com/shop"}`)
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "https://example.com/shop", f.browser.navigatedTo)
		assert.Contains(t, res.Body, "https://example.com/")
		assert.Contains(t, res.Body, "Example")
	})

	t.Run("auto scroll reports passes", func(t *testing.T) {
		f := newSurfaceFixture(Config{AutoScroll: true})
		f.browser.passes = 3
		res := exec(f.surface, "navigate", `{"url":"https://example.com/feed"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "3 passes")
	})

	t.Run("rejects relative and non http urls", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		for _, u := range []string{"/shop", "ftp://example.com", "javascript:alert(1)"} {
			res := exec(f.surface, "navigate", `{"url":"`+u+`"}`)
			assert.False(t, res.Success, u)
		}
		assert.Empty(t, f.browser.navigatedTo)
	})

	t.Run("requires url", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "navigate", `{}`)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "url is required")
	})

	t.Run("browser failure becomes a tool error", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		f.browser.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
		res := exec(f.surface, "navigate", `{"url":"https://nope.example"}`)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "ERR_NAME_NOT_RESOLVED")
	})

	t.Run("malformed arguments", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "navigate", `{"url":`)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "invalid navigate arguments")
	})
}

func TestSurface_ScrollToBottom(t *testing.T) {
	f := newSurfaceFixture(Config{})

	res := exec(f.surface, "scroll_to_bottom", "")
	require.True(t, res.Success)
	assert.Contains(t, res.Body, "Already at the bottom")

	f.browser.passes = 5
	res = exec(f.surface, "scroll_to_bottom", "")
	require.True(t, res.Success)
	assert.Contains(t, res.Body, "5 scroll passes")
}

func TestSurface_Scroll(t *testing.T) {
	f := newSurfaceFixture(Config{})

	res := exec(f.surface, "scroll", `{"direction":"down","amount":400}`)
	require.True(t, res.Success)
	assert.Equal(t, []string{"down"}, f.browser.scrolls)

	res = exec(f.surface, "scroll", `{"direction":"sideways"}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "sideways")
}

func TestSurface_GoBack(t *testing.T) {
	f := newSurfaceFixture(Config{})
	res := exec(f.surface, "go_back", "")
	require.True(t, res.Success)
	assert.Equal(t, 1, f.browser.backCalls)

	f.browser.backErr = errors.New("no history")
	res = exec(f.surface, "go_back", "")
	assert.False(t, res.Success)
}

func TestSurface_Wait(t *testing.T) {
	f := newSurfaceFixture(Config{MaxWait: 50 * time.Millisecond})

	res := exec(f.surface, "wait", `{"ms":5}`)
	require.True(t, res.Success)
	assert.Equal(t, "Waited 5ms", res.Body)

	res = exec(f.surface, "wait", `{"ms":2000}`)
	require.True(t, res.Success)
	assert.Contains(t, res.Body, "capped")
	assert.Contains(t, res.Body, "50ms")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	canceled := f.surface.Execute(ctx, entity.ToolCall{Name: "wait", Arguments: `{"ms":40}`})
	assert.False(t, canceled.Success)
}

func TestSurface_ObservePage(t *testing.T) {
	elements := []entity.UIElement{
		{ID: "ui-0001", Type: "input", Text: "", AriaLabel: "Search", Selector: "#q", InViewport: true},
		{ID: "ui-0002", Type: "button", Text: "Submit order", Selector: "#submit", InViewport: false},
		{ID: "ui-0003", Type: "link", Text: "Help", Selector: "nav > a:nth-of-type(2)", InViewport: true},
	}

	t.Run("lists elements with selectors", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		f.browser.elements = elements
		f.browser.pageText = "Welcome to Example, the store for examples."

		res := exec(f.surface, "observe_page", "{}")
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "Interactive elements: 3")
		assert.Contains(t, res.Body, "[ui-0001] input: \"Search\"")
		assert.Contains(t, res.Body, "#submit")
		assert.Contains(t, res.Body, "below the fold")
		assert.Contains(t, res.Body, "Welcome to Example")
		assert.Equal(t, []string{""}, f.browser.scopeQueries, "no module means whole page")
	})

	t.Run("module narrows the query scope", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		f.browser.elements = elements

		res := exec(f.surface, "observe_page", `{"module":"header"}`)
		require.True(t, res.Success)
		require.Len(t, f.browser.scopeQueries, 1)
		assert.Equal(t, moduleScopes[entity.ModuleHeader], f.browser.scopeQueries[0])
	})

	t.Run("module outside the taxonomy observes the whole page", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		f.browser.elements = elements

		res := exec(f.surface, "observe_page", `{"module":"hero-banner"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "not in the taxonomy")
		assert.Equal(t, []string{""}, f.browser.scopeQueries)
	})

	t.Run("focus filters by keyword", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		f.browser.elements = elements

		res := exec(f.surface, "observe_page", `{"focus":"order"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "Interactive elements: 1")
		assert.Contains(t, res.Body, "ui-0002")
		assert.NotContains(t, res.Body, "ui-0003")
	})
}

func TestSurface_RegisterElement(t *testing.T) {
	t.Run("requires id and selector", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "register_element", `{"selector":"#q"}`)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "element_id is required")

		res = exec(f.surface, "register_element", `{"element_id":"search"}`)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "selector is required")
	})

	t.Run("before any context lands on the unclassified page", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "register_element", `{"element_id":"search_input","selector":"#q","description":"the search box"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, `Registered element "search_input"`)
		assert.Contains(t, res.Body, entity.UnclassifiedPage)

		snap := f.acc.Snapshot()
		require.Contains(t, snap.Pages, entity.UnclassifiedPage)
	})

	t.Run("after a context targets that page", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		require.True(t, exec(f.surface, "set_page_context",
			`{"page_type":"example_com_main","description":"landing"}`).Success)

		res := exec(f.surface, "register_element",
			`{"element_id":"search_input","selector":"#q","module":"header","allow_methods":["CLICK","fill"]}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "example_com_main")

		snap := f.acc.Snapshot()
		el := snap.Pages["example_com_main"].Elements["search_input"]
		assert.Equal(t, entity.ModuleHeader, el.Module)
		assert.Equal(t, []string{"click", "fill"}, el.AllowMethods)
	})

	t.Run("re-registering reports an update", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		exec(f.surface, "set_page_context", `{"page_type":"p","description":"d"}`)
		exec(f.surface, "register_element", `{"element_id":"x","selector":"#a"}`)

		res := exec(f.surface, "register_element", `{"element_id":"x","selector":"#b"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, `Updated element "x"`)
	})

	t.Run("module outside the taxonomy is stored as unknown", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		exec(f.surface, "set_page_context", `{"page_type":"p","description":"d"}`)

		res := exec(f.surface, "register_element", `{"element_id":"x","selector":"#a","module":"hero"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "stored as")

		snap := f.acc.Snapshot()
		assert.Equal(t, entity.ModuleUnknown, snap.Pages["p"].Elements["x"].Module)
	})

	t.Run("global element skips the page scope", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "register_element",
			`{"element_id":"cookie_accept","selector":"#cookies","global":true}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, `scope "global"`)

		snap := f.acc.Snapshot()
		assert.Contains(t, snap.GlobalElements, "cookie_accept")
		assert.Empty(t, snap.Pages)
	})
}

func TestSurface_SetPageContext(t *testing.T) {
	t.Run("requires page_type", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "set_page_context", `{"description":"d"}`)
		assert.False(t, res.Success)
	})

	t.Run("first context inherits the session url pattern", func(t *testing.T) {
		f := newSurfaceFixture(Config{DefaultURLPattern: `^https://example\.com/`})

		res := exec(f.surface, "set_page_context", `{"page_type":"example_com_main","description":"d"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "Created page context")

		snap := f.acc.Snapshot()
		assert.Equal(t, `^https://example\.com/`, snap.Pages["example_com_main"].URLPattern)
	})

	t.Run("later contexts do not inherit", func(t *testing.T) {
		f := newSurfaceFixture(Config{DefaultURLPattern: `^https://example\.com/`})
		exec(f.surface, "set_page_context", `{"page_type":"first","description":"d"}`)
		exec(f.surface, "set_page_context", `{"page_type":"second","description":"d"}`)

		snap := f.acc.Snapshot()
		assert.Empty(t, snap.Pages["second"].URLPattern)
	})

	t.Run("own pattern beats the default", func(t *testing.T) {
		f := newSurfaceFixture(Config{DefaultURLPattern: `^https://example\.com/`})
		exec(f.surface, "set_page_context",
			`{"page_type":"search","description":"d","url_pattern":"^https://example\\.com/s/"}`)

		snap := f.acc.Snapshot()
		assert.Equal(t, `^https://example\.com/s/`, snap.Pages["search"].URLPattern)
	})

	t.Run("invalid pattern is dropped with a note", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		res := exec(f.surface, "set_page_context",
			`{"page_type":"search","description":"d","url_pattern":"(["}`)
		require.True(t, res.Success, "a bad pattern must not fail the context")
		assert.Contains(t, res.Body, "Dropped url_pattern")

		snap := f.acc.Snapshot()
		assert.Empty(t, snap.Pages["search"].URLPattern)
	})

	t.Run("selecting an existing context reports the merge", func(t *testing.T) {
		f := newSurfaceFixture(Config{})
		exec(f.surface, "set_page_context", `{"page_type":"p","description":"d"}`)
		res := exec(f.surface, "set_page_context", `{"page_type":"p","description":"d2"}`)
		require.True(t, res.Success)
		assert.Contains(t, res.Body, "Selected existing page context")
	})
}

func TestSurface_DefinitionsMatchDispatch(t *testing.T) {
	f := newSurfaceFixture(Config{})
	defs := f.surface.Definitions()
	require.Len(t, defs, len(entity.ToolNames()))

	for i, name := range entity.ToolNames() {
		assert.Equal(t, name.String(), defs[i].Name)
	}

	byName := map[string]entity.ToolDefinition{}
	for _, d := range defs {
		byName[d.Name] = d
	}
	req, ok := byName["register_element"].Parameters["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, req, "element_id")
	assert.Contains(t, req, "selector")
}
