package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"
)

// discardLogger satisfies output.LoggerPort for tests.
type discardLogger struct{}

func (discardLogger) Debug(string, ...any)                        {}
func (discardLogger) Info(string, ...any)                         {}
func (discardLogger) Warn(string, ...any)                         {}
func (discardLogger) Error(string, ...any)                        {}
func (discardLogger) WithField(string, any) output.LoggerPort     { return discardLogger{} }
func (discardLogger) WithFields(map[string]any) output.LoggerPort { return discardLogger{} }
func (discardLogger) Close() error                                { return nil }

func newTestAccumulator(seed *entity.SiteCapability, policy entity.MergePolicy) *Accumulator {
	return NewAccumulator(seed, "example.com", "session-1", policy, discardLogger{})
}

func seedDocument(t *testing.T) *entity.SiteCapability {
	t.Helper()
	doc := entity.NewSiteCapability("example.com")
	page, _ := doc.EnsurePage("example_com_search")
	page.URLPattern = "^https://example\\.com/search"
	require.True(t, page.Upsert(entity.ElementCapability{
		ElementID:  "search_input",
		Selector:   "#q",
		RecordedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.True(t, page.Upsert(entity.ElementCapability{
		ElementID:  "old_filter",
		Selector:   ".filter",
		RecordedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	otherPage, _ := doc.EnsurePage("example_com_detail")
	otherPage.Upsert(entity.ElementCapability{ElementID: "buy", Selector: "#buy"})
	doc.UpsertGlobal(entity.ElementCapability{ElementID: "cookie_accept", Selector: "#cookies"})
	return doc
}

func TestAccumulator_FirstRecording(t *testing.T) {
	acc := newTestAccumulator(nil, entity.MergeRetain)

	created := acc.SetPageContext("example_com_main", "landing page", "^https://example\\.com/$")
	assert.True(t, created)
	assert.Equal(t, "example_com_main", acc.ActivePage())

	scope, isNew := acc.RegisterElement(entity.ElementCapability{
		ElementID: "search_input", Selector: "#q", Module: "header",
	}, false)
	assert.Equal(t, "example_com_main", scope)
	assert.True(t, isNew)

	snap := acc.Snapshot()
	require.Contains(t, snap.Pages, "example_com_main")
	page := snap.Pages["example_com_main"]
	assert.Equal(t, "landing page", page.Description)
	assert.Equal(t, "^https://example\\.com/$", page.URLPattern)
	require.Contains(t, page.Elements, "search_input")
	assert.Equal(t, entity.ModuleHeader, page.Elements["search_input"].Module)
	assert.False(t, page.Elements["search_input"].RecordedAt.IsZero())
	assert.Equal(t, "session-1", snap.RecordedBy)

	pages, elements := acc.Stats()
	assert.Equal(t, 1, pages)
	assert.Equal(t, 1, elements)
}

func TestAccumulator_RegisterBeforeContext(t *testing.T) {
	acc := newTestAccumulator(nil, entity.MergeRetain)

	scope, isNew := acc.RegisterElement(entity.ElementCapability{
		ElementID: "mystery_button", Selector: "#x",
	}, false)
	assert.Equal(t, entity.UnclassifiedPage, scope)
	assert.True(t, isNew)
	assert.Equal(t, entity.UnclassifiedPage, acc.ActivePage())

	snap := acc.Snapshot()
	require.Contains(t, snap.Pages, entity.UnclassifiedPage)
	assert.Contains(t, snap.Pages[entity.UnclassifiedPage].Elements, "mystery_button")
}

func TestAccumulator_GlobalScope(t *testing.T) {
	acc := newTestAccumulator(nil, entity.MergeRetain)

	scope, isNew := acc.RegisterElement(entity.ElementCapability{
		ElementID: "cookie_accept", Selector: "#cookies",
	}, true)
	assert.Equal(t, "global", scope)
	assert.True(t, isNew)

	snap := acc.Snapshot()
	assert.Contains(t, snap.GlobalElements, "cookie_accept")
	assert.Empty(t, snap.Pages)
}

func TestAccumulator_ReRegisterKeepsRecordedAt(t *testing.T) {
	seed := seedDocument(t)
	acc := newTestAccumulator(seed, entity.MergeRetain)
	acc.SetPageContext("example_com_search", "", "")

	originalRecordedAt := seed.Pages["example_com_search"].Elements["search_input"].RecordedAt

	scope, isNew := acc.RegisterElement(entity.ElementCapability{
		ElementID: "search_input", Selector: "input[name=q]", Description: "refined",
	}, false)
	assert.Equal(t, "example_com_search", scope)
	assert.False(t, isNew)

	snap := acc.Snapshot()
	el := snap.Pages["example_com_search"].Elements["search_input"]
	assert.True(t, el.RecordedAt.Equal(originalRecordedAt), "RecordedAt must survive re-registration")
	assert.Equal(t, "input[name=q]", el.Selector)
	assert.Equal(t, "refined", el.Description)
	assert.True(t, el.LastSeen.After(originalRecordedAt))
}

func TestAccumulator_SeedIsNotMutated(t *testing.T) {
	seed := seedDocument(t)
	acc := newTestAccumulator(seed, entity.MergeRetain)

	acc.SetPageContext("example_com_search", "", "")
	acc.RegisterElement(entity.ElementCapability{ElementID: "brand_new", Selector: "#n"}, false)

	assert.NotContains(t, seed.Pages["example_com_search"].Elements, "brand_new")
	assert.Len(t, seed.Pages["example_com_search"].Elements, 2)
}

func TestAccumulator_MergePolicies(t *testing.T) {
	reRecord := func(policy entity.MergePolicy) *entity.SiteCapability {
		acc := newTestAccumulator(seedDocument(t), policy)
		acc.SetPageContext("example_com_search", "", "")
		acc.RegisterElement(entity.ElementCapability{ElementID: "search_input", Selector: "#q2"}, false)
		return acc.Snapshot()
	}

	t.Run("retain keeps unmentioned elements", func(t *testing.T) {
		snap := reRecord(entity.MergeRetain)
		page := snap.Pages["example_com_search"]
		assert.Contains(t, page.Elements, "old_filter")
		assert.False(t, page.Elements["old_filter"].Stale)
	})

	t.Run("prune drops unmentioned elements", func(t *testing.T) {
		snap := reRecord(entity.MergePrune)
		page := snap.Pages["example_com_search"]
		assert.NotContains(t, page.Elements, "old_filter")
		assert.Contains(t, page.Elements, "search_input")
	})

	t.Run("mark flags unmentioned elements stale", func(t *testing.T) {
		snap := reRecord(entity.MergeMark)
		page := snap.Pages["example_com_search"]
		require.Contains(t, page.Elements, "old_filter")
		assert.True(t, page.Elements["old_filter"].Stale)
		assert.False(t, page.Elements["search_input"].Stale)
	})

	t.Run("untouched pages are left alone", func(t *testing.T) {
		snap := reRecord(entity.MergePrune)
		require.Contains(t, snap.Pages, "example_com_detail")
		assert.Contains(t, snap.Pages["example_com_detail"].Elements, "buy")
	})

	t.Run("untouched global scope is left alone", func(t *testing.T) {
		snap := reRecord(entity.MergePrune)
		assert.Contains(t, snap.GlobalElements, "cookie_accept")
	})

	t.Run("touched global scope is pruned", func(t *testing.T) {
		acc := newTestAccumulator(seedDocument(t), entity.MergePrune)
		acc.RegisterElement(entity.ElementCapability{ElementID: "nav_login", Selector: "#login"}, true)
		snap := acc.Snapshot()
		assert.Contains(t, snap.GlobalElements, "nav_login")
		assert.NotContains(t, snap.GlobalElements, "cookie_accept")
	})
}

func TestAccumulator_SnapshotDoesNotConstrainLaterWrites(t *testing.T) {
	acc := newTestAccumulator(nil, entity.MergePrune)
	acc.SetPageContext("example_com_main", "", "")
	acc.RegisterElement(entity.ElementCapability{ElementID: "first", Selector: "#a"}, false)

	mid := acc.Snapshot()
	acc.RegisterElement(entity.ElementCapability{ElementID: "second", Selector: "#b"}, false)
	final := acc.Snapshot()

	assert.Len(t, mid.Pages["example_com_main"].Elements, 1)
	assert.Len(t, final.Pages["example_com_main"].Elements, 2, "the mid-session snapshot must not limit later registrations")
	assert.Contains(t, final.Pages["example_com_main"].Elements, "first")
}

func TestAccumulator_KnownPages(t *testing.T) {
	acc := newTestAccumulator(seedDocument(t), entity.MergeRetain)

	known := acc.KnownPages()
	assert.Equal(t, map[string]int{
		"example_com_search": 2,
		"example_com_detail": 1,
	}, known)
}

func TestAccumulator_StatsCountUniquePages(t *testing.T) {
	acc := newTestAccumulator(nil, entity.MergeRetain)
	acc.SetPageContext("a", "", "")
	acc.SetPageContext("b", "", "")
	acc.SetPageContext("a", "", "")
	acc.RegisterElement(entity.ElementCapability{ElementID: "x", Selector: "#x"}, false)
	acc.RegisterElement(entity.ElementCapability{ElementID: "x", Selector: "#x"}, false)

	pages, elements := acc.Stats()
	assert.Equal(t, 2, pages)
	assert.Equal(t, 2, elements)
}
