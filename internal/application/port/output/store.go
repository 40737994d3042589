package output

import (
	"context"
	"time"

	"sitecap/internal/domain/entity"
)

// CapabilitySummary is the listing row for one stored document.
type CapabilitySummary struct {
	Domain    string    `json:"domain"`
	Pages     int       `json:"pages"`
	Elements  int       `json:"elements"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CapabilityStore persists site capability documents keyed by domain.
type CapabilityStore interface {
	// Load returns the stored document, or nil when the domain has never
	// been recorded.
	Load(ctx context.Context, domain string) (*entity.SiteCapability, error)
	// Save writes the document durably and returns the location it was
	// saved to (a file path or a database locator).
	Save(ctx context.Context, doc *entity.SiteCapability) (string, error)
	List(ctx context.Context) ([]CapabilitySummary, error)
	Close() error
}

// SessionHistory is implemented by stores that additionally keep an audit
// trail of recording sessions.
type SessionHistory interface {
	AppendSession(ctx context.Context, rec SessionRecord) error
	RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error)
}

// SessionRecord is one row of the session audit trail.
type SessionRecord struct {
	SessionID  string              `json:"session_id"`
	Domain     string              `json:"domain"`
	Scenario   string              `json:"scenario,omitempty"`
	State      entity.SessionState `json:"state"`
	Turns      int                 `json:"turns"`
	Usage      entity.TokenUsage   `json:"token_usage"`
	DurationMS int64               `json:"duration_ms"`
	StartedAt  time.Time           `json:"started_at"`
}
