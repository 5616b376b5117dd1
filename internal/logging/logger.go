// Package logging provides leveled logging and lifecycle tracing for barw.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An EventLogger for structured JSONL walker events (.barw/events.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every walker
// decision is logged and lifecycle events carry positions.
const LevelTrace = slog.LevelDebug - 4

// EventsFile is the name of the JSONL event log inside the data directory.
const EventsFile = "events.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// EventLogger appends walker lifecycle events (spawn, annihilate, branch,
// sample_done) to a JSONL file. It is safe for concurrent use, and a nil
// *EventLogger is a valid no-op.
type EventLogger struct {
	mu       sync.Mutex
	w        io.WriteCloser
	detailed bool
}

// NewEventLogger opens dir/events.jsonl for append.
// At "info" level it returns nil and no file is created. At "trace" level
// events include walker positions. Returns nil if the file cannot be opened.
func NewEventLogger(dir string, level string) *EventLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, EventsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &EventLogger{w: f, detailed: lvl <= LevelTrace}
}

// Detailed reports whether events should carry positions.
func (el *EventLogger) Detailed() bool {
	return el != nil && el.detailed
}

// Log writes one event as a JSONL line with a "time" field added.
// The caller's map is not mutated.
func (el *EventLogger) Log(event map[string]any) {
	if el == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.w == nil {
		return
	}
	_, _ = el.w.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (el *EventLogger) Close() {
	if el == nil {
		return
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	if el.w != nil {
		el.w.Close()
		el.w = nil
	}
}
