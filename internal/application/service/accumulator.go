package service

import (
	"time"

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"
)

// Accumulator builds the site capability document of one recording
// session. It is owned by the session goroutine: all mutations come from
// sequentially executed tool calls, so there is a single writer and no
// locking. Readers only ever see deep copies via Snapshot.
type Accumulator struct {
	doc       *entity.SiteCapability
	sessionID string
	policy    entity.MergePolicy
	logger    output.LoggerPort

	activePage string

	// touched tracks page types this session established as context, and
	// registered tracks which element ids it wrote per scope. The merge
	// policy acts only on touched scopes; pages the session never visited
	// stay exactly as loaded.
	touched       map[string]bool
	registered    map[string]map[string]bool
	touchedGlobal bool

	pagesTouched     int
	elementsRecorded int
}

// globalScope keys the registered set for domain-wide elements. Page
// types never collide with it because set_page_context rejects empties.
const globalScope = ""

// NewAccumulator seeds a session accumulator. seed is the previously
// stored document for the domain and may be nil for a first recording;
// it is cloned, never mutated.
func NewAccumulator(seed *entity.SiteCapability, domain, sessionID string, policy entity.MergePolicy, logger output.LoggerPort) *Accumulator {
	doc := seed.Clone()
	if doc == nil {
		doc = entity.NewSiteCapability(domain)
	}
	if policy == "" {
		policy = entity.MergeRetain
	}
	return &Accumulator{
		doc:        doc,
		sessionID:  sessionID,
		policy:     policy,
		logger:     logger,
		touched:    make(map[string]bool),
		registered: make(map[string]map[string]bool),
	}
}

// SetPageContext creates or re-selects the page that subsequent
// registrations land on. Reports whether the page is new to the document.
func (a *Accumulator) SetPageContext(pageType, description, urlPattern string) bool {
	page, created := a.doc.EnsurePage(pageType)
	if description != "" {
		page.Description = description
	}
	if urlPattern != "" {
		page.URLPattern = urlPattern
	}

	a.activePage = pageType
	if !a.touched[pageType] {
		a.touched[pageType] = true
		a.pagesTouched++
	}
	return created
}

// ActivePage returns the page type registrations currently target, or ""
// before the first set_page_context.
func (a *Accumulator) ActivePage() string {
	return a.activePage
}

// RegisterElement upserts an element into the active page, or into the
// domain-wide scope when global is set. A registration arriving before
// any page context lands on the "unclassified" page rather than being
// dropped. Returns the scope written to and whether the element is new.
func (a *Accumulator) RegisterElement(el entity.ElementCapability, global bool) (string, bool) {
	now := time.Now().UTC()
	el.Module = entity.ParseModule(string(el.Module))
	el.AllowMethods = entity.NormalizeMethods(el.AllowMethods)
	el.RecordedAt = now
	el.LastSeen = now

	var scope string
	var created bool
	if global {
		created = a.doc.UpsertGlobal(el)
		scope = globalScope
		a.touchedGlobal = true
	} else {
		scope = a.activePage
		if scope == "" {
			scope = entity.UnclassifiedPage
			a.logger.Warn("element registered before any page context, using unclassified page",
				"elementID", el.ElementID)
			if !a.touched[scope] {
				a.touched[scope] = true
				a.pagesTouched++
			}
			a.activePage = scope
		}
		page, _ := a.doc.EnsurePage(scope)
		created = page.Upsert(el)
	}

	set := a.registered[scope]
	if set == nil {
		set = make(map[string]bool)
		a.registered[scope] = set
	}
	set[el.ElementID] = true

	a.elementsRecorded++
	return scopeName(scope), created
}

func scopeName(scope string) string {
	if scope == globalScope {
		return "global"
	}
	return scope
}

// Snapshot returns a deep copy of the document with the session's merge
// policy applied to the scopes it touched. The accumulator itself is left
// untouched, so a snapshot taken mid-session never constrains later
// registrations.
func (a *Accumulator) Snapshot() *entity.SiteCapability {
	snap := a.doc.Clone()
	snap.UpdatedAt = time.Now().UTC()
	snap.RecordedBy = a.sessionID

	if a.policy == entity.MergeRetain {
		return snap
	}

	for pageType := range a.touched {
		page, ok := snap.Page(pageType)
		if !ok {
			continue
		}
		a.applyPolicy(page.Elements, a.registered[pageType])
	}
	if a.touchedGlobal {
		a.applyPolicy(snap.GlobalElements, a.registered[globalScope])
	}
	return snap
}

func (a *Accumulator) applyPolicy(elements map[string]entity.ElementCapability, written map[string]bool) {
	for id, el := range elements {
		if written[id] {
			continue
		}
		switch a.policy {
		case entity.MergePrune:
			delete(elements, id)
		case entity.MergeMark:
			el.Stale = true
			elements[id] = el
		}
	}
}

// Stats reports how many pages this session touched and how many
// register calls it applied.
func (a *Accumulator) Stats() (pages, elements int) {
	return a.pagesTouched, a.elementsRecorded
}

// Domain returns the domain the document is keyed by.
func (a *Accumulator) Domain() string {
	return a.doc.Domain
}

// KnownPages summarizes the document's current pages for prompt
// construction: page type plus element count.
func (a *Accumulator) KnownPages() map[string]int {
	out := make(map[string]int, len(a.doc.Pages))
	for t, p := range a.doc.Pages {
		out[t] = len(p.Elements)
	}
	return out
}
