package observer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sitecap/internal/application/service"
	"sitecap/internal/domain/entity"
)

var _ service.StepSink = (*AuditSink)(nil)

// AuditSink appends every step as one JSON line to a per-session file.
// Each write hits the file immediately, so a crashed session keeps all
// steps recorded up to the crash.
type AuditSink struct {
	file      *os.File
	enc       *json.Encoder
	sessionID string
}

type auditRecord struct {
	SessionID string `json:"session_id"`
	entity.StepEvent
}

func NewAuditSink(dir, sessionID string) (*AuditSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	file, err := os.OpenFile(
		filepath.Join(dir, sessionID+".jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}

	return &AuditSink{
		file:      file,
		enc:       json.NewEncoder(file),
		sessionID: sessionID,
	}, nil
}

// Path returns the audit file location.
func (s *AuditSink) Path() string {
	return s.file.Name()
}

func (s *AuditSink) OnStep(ev entity.StepEvent) {
	_ = s.enc.Encode(auditRecord{SessionID: s.sessionID, StepEvent: ev})
}

func (s *AuditSink) Close() error {
	return s.file.Close()
}
