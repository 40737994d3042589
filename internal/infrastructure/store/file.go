package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"
)

var _ output.CapabilityStore = (*FileStore)(nil)

// FileStore keeps one pretty-printed JSON document per domain in a
// directory. Writes go through a temp file and rename, so a crashed
// session never leaves a torn document behind.
type FileStore struct {
	dir    string
	logger output.LoggerPort
}

func NewFileStore(dir string, logger output.LoggerPort) (*FileStore, error) {
	if dir == "" {
		dir = "capabilities"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory documents are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(domain string) string {
	return filepath.Join(s.dir, domain+".json")
}

func (s *FileStore) Load(ctx context.Context, domain string) (*entity.SiteCapability, error) {
	data, err := os.ReadFile(s.path(domain))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read capability %s: %w", domain, err)
	}

	var doc entity.SiteCapability
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse capability %s: %w", domain, err)
	}
	return &doc, nil
}

func (s *FileStore) Save(ctx context.Context, doc *entity.SiteCapability) (string, error) {
	if doc == nil || doc.Domain == "" {
		return "", fmt.Errorf("capability document has no domain")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode capability %s: %w", doc.Domain, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+doc.Domain+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write capability %s: %w", doc.Domain, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	target := s.path(doc.Domain)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("replace capability %s: %w", doc.Domain, err)
	}
	return target, nil
}

func (s *FileStore) List(ctx context.Context) ([]output.CapabilitySummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var out []output.CapabilitySummary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}

		doc, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping unreadable capability file", "file", name, "error", err)
			}
			continue
		}
		if doc == nil {
			continue
		}

		out = append(out, output.CapabilitySummary{
			Domain:    doc.Domain,
			Pages:     len(doc.Pages),
			Elements:  doc.ElementCount(),
			UpdatedAt: doc.UpdatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}
