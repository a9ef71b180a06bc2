package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"luxview/internal/widget"
)

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("telemetry: unknown log level %q", s)
}

// NewLogger builds a slog logger writing text or json records to w.
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("telemetry: unknown log format %q", format)
}

// OpenLogFile opens path for appending, creating parent directories.
// The TUI owns the terminal, so diagnostics go to a file.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open log file: %w", err)
	}
	return f, nil
}

// NewSessionID returns a fresh identifier for one widget session.
func NewSessionID() string { return uuid.NewString() }

// SlogEvents writes every widget event as an info record.
type SlogEvents struct {
	logger  *slog.Logger
	session string
}

var _ widget.EventLogger = (*SlogEvents)(nil)

// NewSlogEvents creates an event sink tagging records with session.
func NewSlogEvents(logger *slog.Logger, session string) *SlogEvents {
	return &SlogEvents{logger: logger, session: session}
}

// Log implements widget.EventLogger.
func (s *SlogEvents) Log(event string, payload interface{}) {
	attrs := []any{"event", event, "session", s.session}
	switch p := payload.(type) {
	case widget.ExportMap:
		attrs = append(attrs, "keys", p.Keys(), "items", exportItems(p))
	case string:
		if p != "" {
			attrs = append(attrs, "value", p)
		}
	case nil:
	default:
		attrs = append(attrs, "payload", p)
	}
	s.logger.Info("widget event", attrs...)
}

// exportItems counts the items addressed by an export map.
func exportItems(m widget.ExportMap) int {
	n := 0
	for _, idx := range m.Actions {
		n += len(idx)
	}
	if m.CurrentVis != nil {
		n++
	}
	return n
}
