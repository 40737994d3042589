package entity

import (
	"fmt"
	"strings"
	"time"
)

// SessionState tracks a recording session through its lifecycle.
// Idle -> Running -> one of the terminal states.
type SessionState string

const (
	SessionIdle             SessionState = "idle"
	SessionRunning          SessionState = "running"
	SessionCompleted        SessionState = "completed"
	SessionTurnLimitReached SessionState = "turn_limit_reached"
	SessionFailed           SessionState = "failed"
)

func (s SessionState) Terminal() bool {
	switch s {
	case SessionCompleted, SessionTurnLimitReached, SessionFailed:
		return true
	}
	return false
}

// MergePolicy controls what happens to previously recorded elements of a
// page that a later session re-records without mentioning them.
type MergePolicy string

const (
	// MergeRetain keeps unmentioned elements untouched.
	MergeRetain MergePolicy = "retain"
	// MergePrune removes unmentioned elements from re-recorded pages.
	MergePrune MergePolicy = "prune"
	// MergeMark keeps unmentioned elements but flags them stale.
	MergeMark MergePolicy = "mark"
)

// ParseMergePolicy accepts the policy names above; empty selects the
// default retain policy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MergeRetain:
		return MergeRetain, nil
	case MergePrune:
		return MergePrune, nil
	case MergeMark:
		return MergeMark, nil
	}
	return "", fmt.Errorf("unknown merge policy %q (want retain, prune or mark)", s)
}

// TokenUsage accumulates the language-model token counts of a session.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

func (u *TokenUsage) Add(other TokenUsage) {
	u.Input += other.Input
	u.Output += other.Output
	u.Total += other.Total
}

// StepEvent describes one executed tool call. Events are observational:
// they never feed back into tool results.
type StepEvent struct {
	Seq        int       `json:"seq"`
	Tool       ToolName  `json:"tool"`
	Arguments  string    `json:"arguments,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// SessionResult is returned on every termination path, including failures
// and turn-limit stops.
type SessionResult struct {
	SessionID  string          `json:"session_id"`
	Domain     string          `json:"domain"`
	State      SessionState    `json:"state"`
	Success    bool            `json:"success"`
	Summary    string          `json:"summary,omitempty"`
	Error      string          `json:"error,omitempty"`
	SavedPath  string          `json:"saved_path,omitempty"`
	Turns      int             `json:"turns"`
	Usage      TokenUsage      `json:"token_usage"`
	Duration   time.Duration   `json:"duration"`
	Steps      []StepEvent     `json:"steps,omitempty"`
	Capability *SiteCapability `json:"capability,omitempty"`
}
