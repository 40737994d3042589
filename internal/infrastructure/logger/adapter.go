package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sitecap/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ output.LoggerPort = (*ZapAdapter)(nil)

// ZapAdapter writes structured JSON logs to a per-session file and,
// when asked, mirrors human readable lines to stderr.
type ZapAdapter struct {
	logger  *zap.SugaredLogger
	closeFn func() error
}

type Config struct {
	// Dir is where session log files land. Empty means "./log".
	Dir string
	// SessionName keys the file name after the timestamp prefix.
	SessionName string
	// Console mirrors warnings and errors to stderr.
	Console bool
	// Verbose widens both the file and the console mirror to debug.
	Verbose bool
}

func New(cfg Config) (*ZapAdapter, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "log"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(cfg.SessionName))
	file, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	fileLevel := zapcore.InfoLevel
	if cfg.Verbose {
		fileLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), fileLevel),
	}
	if cfg.Console {
		consoleLevel := zapcore.WarnLevel
		if cfg.Verbose {
			consoleLevel = zapcore.DebugLevel
		}
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(os.Stderr), consoleLevel))
	}

	zl := zap.New(zapcore.NewTee(cores...))

	return &ZapAdapter{
		logger: zl.Sugar(),
		closeFn: func() error {
			_ = zl.Sync()
			return file.Close()
		},
	}, nil
}

// NewNop discards everything. Tests use it.
func NewNop() *ZapAdapter {
	return &ZapAdapter{logger: zap.NewNop().Sugar()}
}

func (l *ZapAdapter) Debug(msg string, args ...any) { l.logger.Debugw(msg, args...) }
func (l *ZapAdapter) Info(msg string, args ...any)  { l.logger.Infow(msg, args...) }
func (l *ZapAdapter) Warn(msg string, args ...any)  { l.logger.Warnw(msg, args...) }
func (l *ZapAdapter) Error(msg string, args ...any) { l.logger.Errorw(msg, args...) }

// WithField returns a child logger. Children share the parent's file;
// only the logger returned by New owns it on Close.
func (l *ZapAdapter) WithField(key string, value any) output.LoggerPort {
	return &ZapAdapter{logger: l.logger.With(key, value)}
}

func (l *ZapAdapter) WithFields(fields map[string]any) output.LoggerPort {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return &ZapAdapter{logger: l.logger.With(args...)}
}

func (l *ZapAdapter) Close() error {
	if l.closeFn == nil {
		return nil
	}
	return l.closeFn()
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "session"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
