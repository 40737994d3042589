package entity

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Module locates an element within a page region. The set is closed:
// anything outside it parses to ModuleUnknown.
type Module string

const (
	ModuleHeader     Module = "header"
	ModuleFooter     Module = "footer"
	ModuleSidebar    Module = "sidebar"
	ModuleNavibar    Module = "navibar"
	ModuleMain       Module = "main"
	ModuleModal      Module = "modal"
	ModuleBreadcrumb Module = "breadcrumb"
	ModuleTab        Module = "tab"
	ModuleUnknown    Module = "unknown"
)

// Modules returns the full taxonomy in a stable order.
func Modules() []Module {
	return []Module{
		ModuleHeader,
		ModuleFooter,
		ModuleSidebar,
		ModuleNavibar,
		ModuleMain,
		ModuleModal,
		ModuleBreadcrumb,
		ModuleTab,
		ModuleUnknown,
	}
}

// ParseModule maps a free-form string onto the taxonomy. Unrecognized or
// empty input yields ModuleUnknown, never an error.
func ParseModule(s string) Module {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modules() {
		if m == known {
			return m
		}
	}
	return ModuleUnknown
}

func (m Module) String() string {
	return string(m)
}

// UnclassifiedPage receives elements registered before any page context
// has been established in a session.
const UnclassifiedPage = "unclassified"

// ErrInvalidURL reports a target URL that has no usable host.
var ErrInvalidURL = errors.New("invalid url: no host")

// NormalizeDomain canonicalizes a raw URL or host into the key a site
// capability document is stored under: lowercase host, no "www." prefix,
// no port.
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}

	host := u.Hostname()
	if host == "" {
		// A bare "example.com/path" parses as a path, retry with a scheme.
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", fmt.Errorf("parse url %q: %w", raw, err)
		}
		host = u.Hostname()
	}
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host, nil
}

// DefaultPageType derives a page-type identifier for a domain's landing
// page, e.g. "airbnb.com" -> "airbnb_com_main".
func DefaultPageType(domain string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return replacer.Replace(domain) + "_main"
}

// ElementCapability is one recorded interactive element. ElementID is the
// upsert key within its scope.
type ElementCapability struct {
	ElementID    string    `json:"element_id"`
	Description  string    `json:"description"`
	ElementType  string    `json:"element_type"`
	AllowMethods []string  `json:"allow_methods,omitempty"`
	Module       Module    `json:"module"`
	Selector     string    `json:"selector"`
	XPath        string    `json:"xpath,omitempty"`
	Text         string    `json:"text,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
	LastSeen     time.Time `json:"last_seen"`
	Stale        bool      `json:"stale,omitempty"`
}

// Clone returns a copy that shares no slices with the original.
func (e ElementCapability) Clone() ElementCapability {
	out := e
	if e.AllowMethods != nil {
		out.AllowMethods = append([]string(nil), e.AllowMethods...)
	}
	return out
}

// NormalizeMethods lowercases, deduplicates and sorts an allow_methods
// list so that repeated registrations compare equal.
func NormalizeMethods(methods []string) []string {
	if len(methods) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// PageCapability groups the elements recorded for one page type.
type PageCapability struct {
	PageType    string                       `json:"page_type"`
	URLPattern  string                       `json:"url_pattern,omitempty"`
	Description string                       `json:"description,omitempty"`
	Elements    map[string]ElementCapability `json:"elements"`
}

func NewPageCapability(pageType string) *PageCapability {
	return &PageCapability{
		PageType: pageType,
		Elements: make(map[string]ElementCapability),
	}
}

// Upsert inserts or overwrites an element by its ElementID. The original
// RecordedAt survives an overwrite; everything else is replaced and any
// stale flag is cleared. Reports whether the element was newly created.
func (p *PageCapability) Upsert(el ElementCapability) bool {
	if p.Elements == nil {
		p.Elements = make(map[string]ElementCapability)
	}
	prev, exists := p.Elements[el.ElementID]
	if exists && !prev.RecordedAt.IsZero() {
		el.RecordedAt = prev.RecordedAt
	}
	el.Stale = false
	p.Elements[el.ElementID] = el
	return !exists
}

func (p *PageCapability) Clone() *PageCapability {
	if p == nil {
		return nil
	}
	out := &PageCapability{
		PageType:    p.PageType,
		URLPattern:  p.URLPattern,
		Description: p.Description,
		Elements:    make(map[string]ElementCapability, len(p.Elements)),
	}
	for id, el := range p.Elements {
		out.Elements[id] = el.Clone()
	}
	return out
}

// SiteCapability is the durable artifact of recording: everything known
// about one domain's interactive surface. Pages and GlobalElements are
// disjoint scopes; the same ElementID may exist in both.
type SiteCapability struct {
	Domain         string                       `json:"domain"`
	Pages          map[string]*PageCapability   `json:"pages"`
	GlobalElements map[string]ElementCapability `json:"global_elements,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
	RecordedBy     string                       `json:"recorded_by,omitempty"`
}

func NewSiteCapability(domain string) *SiteCapability {
	now := time.Now().UTC()
	return &SiteCapability{
		Domain:         domain,
		Pages:          make(map[string]*PageCapability),
		GlobalElements: make(map[string]ElementCapability),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Page returns the capability for a page type, if recorded.
func (s *SiteCapability) Page(pageType string) (*PageCapability, bool) {
	p, ok := s.Pages[pageType]
	return p, ok
}

// EnsurePage returns the page for pageType, creating an empty one when it
// does not exist yet. Reports whether it was created.
func (s *SiteCapability) EnsurePage(pageType string) (*PageCapability, bool) {
	if s.Pages == nil {
		s.Pages = make(map[string]*PageCapability)
	}
	if p, ok := s.Pages[pageType]; ok {
		return p, false
	}
	p := NewPageCapability(pageType)
	s.Pages[pageType] = p
	return p, true
}

// UpsertGlobal inserts or overwrites a domain-wide element.
func (s *SiteCapability) UpsertGlobal(el ElementCapability) bool {
	if s.GlobalElements == nil {
		s.GlobalElements = make(map[string]ElementCapability)
	}
	prev, exists := s.GlobalElements[el.ElementID]
	if exists && !prev.RecordedAt.IsZero() {
		el.RecordedAt = prev.RecordedAt
	}
	el.Stale = false
	s.GlobalElements[el.ElementID] = el
	return !exists
}

// ElementCount counts every recorded element across all scopes.
func (s *SiteCapability) ElementCount() int {
	n := len(s.GlobalElements)
	for _, p := range s.Pages {
		n += len(p.Elements)
	}
	return n
}

// Clone deep-copies the document so callers can hold a snapshot while
// recording continues.
func (s *SiteCapability) Clone() *SiteCapability {
	if s == nil {
		return nil
	}
	out := &SiteCapability{
		Domain:         s.Domain,
		Pages:          make(map[string]*PageCapability, len(s.Pages)),
		GlobalElements: make(map[string]ElementCapability, len(s.GlobalElements)),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		RecordedBy:     s.RecordedBy,
	}
	for t, p := range s.Pages {
		out.Pages[t] = p.Clone()
	}
	for id, el := range s.GlobalElements {
		out.GlobalElements[id] = el.Clone()
	}
	return out
}
