// Package testutil provides shared helpers for tests: an in-memory slog
// handler that records diagnostics, and small builders for declarations and
// registries.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/RaiVaibhav/coala/internal/ctxlog"
)

// Record is one captured diagnostic.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Recorder is a slog.Handler that captures every record for assertions.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	attrs   []slog.Attr
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Enabled implements slog.Handler; the recorder captures all levels.
func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]string)
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.String()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Level: rec.Level, Message: rec.Message, Attrs: attrs})
	return nil
}

// WithAttrs implements slog.Handler. Derived handlers share the record
// store so tests observe everything.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derived{parent: r, attrs: append(append([]slog.Attr{}, r.attrs...), attrs...)}
}

// WithGroup implements slog.Handler; groups are flattened for assertions.
func (r *Recorder) WithGroup(string) slog.Handler { return r }

type derived struct {
	parent *Recorder
	attrs  []slog.Attr
}

func (d *derived) Enabled(context.Context, slog.Level) bool { return true }

func (d *derived) Handle(ctx context.Context, rec slog.Record) error {
	attrs := make(map[string]string)
	for _, a := range d.attrs {
		attrs[a.Key] = a.Value.String()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	d.parent.mu.Lock()
	defer d.parent.mu.Unlock()
	d.parent.records = append(d.parent.records, Record{Level: rec.Level, Message: rec.Message, Attrs: attrs})
	return nil
}

func (d *derived) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derived{parent: d.parent, attrs: append(append([]slog.Attr{}, d.attrs...), attrs...)}
}

func (d *derived) WithGroup(string) slog.Handler { return d }

// Records returns a snapshot of everything captured so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record{}, r.records...)
}

// At returns the captured records at the given level.
func (r *Recorder) At(level slog.Level) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Level == level {
			out = append(out, rec)
		}
	}
	return out
}

// Containing returns the captured records whose message or attribute values
// contain the substring.
func (r *Recorder) Containing(substr string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if strings.Contains(rec.Message, substr) {
			out = append(out, rec)
			continue
		}
		for _, v := range rec.Attrs {
			if strings.Contains(v, substr) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// NewContext returns a context wired to a fresh Recorder.
func NewContext() (context.Context, *Recorder) {
	rec := NewRecorder()
	ctx := ctxlog.WithLogger(context.Background(), slog.New(rec))
	return ctx, rec
}
