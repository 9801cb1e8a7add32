// File path: internal/common/log.go
package common

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultAuditHistory = 1000

var (
	logger     *slog.Logger
	loggerOnce sync.Once
	trail      = newAuditTrail(defaultAuditHistory)
)

// AuditEntry is a captured log record. The bounded in-memory trail is the
// system's append-only audit log: every component logs through Logger() with a
// "component: message" prefix plus entity ids, and the trail keeps the most
// recent records for the /v1/logs surface.
type AuditEntry struct {
	Time       time.Time              `json:"time"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Logger returns a singleton slog logger configured via the LOG_LEVEL
// environment variable. Records are mirrored into the audit trail.
func Logger() *slog.Logger {
	loggerOnce.Do(func() {
		level := slog.LevelInfo
		switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		base := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		logger = slog.New(&capturingHandler{handler: base, trail: trail})
	})
	return logger
}

// AuditLog returns a copy of the captured audit entries, oldest first.
func AuditLog() []AuditEntry {
	if trail == nil {
		return nil
	}
	return trail.entries()
}

type capturingHandler struct {
	handler slog.Handler
	trail   *auditTrail
}

func (h *capturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *capturingHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if h.trail != nil {
		h.trail.capture(record)
	}
	return err
}

func (h *capturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &capturingHandler{handler: h.handler.WithAttrs(attrs), trail: h.trail}
}

func (h *capturingHandler) WithGroup(name string) slog.Handler {
	return &capturingHandler{handler: h.handler.WithGroup(name), trail: h.trail}
}

type auditTrail struct {
	mu      sync.RWMutex
	max     int
	history []AuditEntry
}

func newAuditTrail(max int) *auditTrail {
	if max <= 0 {
		max = defaultAuditHistory
	}
	return &auditTrail{max: max}
}

func (t *auditTrail) capture(record slog.Record) {
	entry := buildAuditEntry(record)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, entry)
	if len(t.history) > t.max {
		t.history = t.history[len(t.history)-t.max:]
	}
}

func (t *auditTrail) entries() []AuditEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.history) == 0 {
		return nil
	}
	out := make([]AuditEntry, len(t.history))
	copy(out, t.history)
	return out
}

func buildAuditEntry(record slog.Record) AuditEntry {
	rec := record.Clone()
	entry := AuditEntry{
		Time:    rec.Time,
		Level:   strings.ToLower(rec.Level.String()),
		Message: rec.Message,
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	entry.Time = entry.Time.UTC()

	var attrs map[string]interface{}
	rec.Attrs(func(a slog.Attr) bool {
		value := valueToAny(a.Value)
		if a.Key == "component" {
			entry.Component = strings.TrimSpace(valueString(value))
			return true
		}
		if attrs == nil {
			attrs = make(map[string]interface{})
		}
		attrs[a.Key] = value
		return true
	})

	// Components log with a "name: message" prefix; recover it when no
	// explicit component attribute was provided.
	if entry.Component == "" {
		if idx := strings.Index(entry.Message, ":"); idx > 0 {
			entry.Component = strings.TrimSpace(entry.Message[:idx])
		}
	}
	entry.Attributes = attrs
	return entry
}

func valueToAny(v slog.Value) interface{} {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC()
	case slog.KindAny:
		return v.Any()
	default:
		return v.String()
	}
}

func valueString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
