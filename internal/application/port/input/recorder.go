package input

import (
	"context"

	"sitecap/internal/domain/entity"
)

// CapabilityRecorder drives one recording session to a terminal state.
// The returned result is non-nil on every path; err is set only for
// session-fatal failures, and even then the result carries whatever was
// persisted before the failure.
type CapabilityRecorder interface {
	Record(ctx context.Context) (*entity.SessionResult, error)
}
