// Package audit delivers job audit events to the notification/logging collaborators.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// Emitter receives one event per committed state change.
// Implementations must be safe for concurrent use.
type Emitter interface {
	Emit(ctx context.Context, ev models.AuditEvent) error
}

// LogEmitter writes events to a slog logger.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a LogEmitter. A nil logger uses slog.Default().
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(ctx context.Context, ev models.AuditEvent) error {
	attrs := []any{
		"event", string(ev.Type),
		"job_id", ev.JobID,
		"actor_id", ev.ActorID,
		"occurred_at", ev.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range ev.Data {
		attrs = append(attrs, k, v)
	}
	e.logger.InfoContext(ctx, "audit", attrs...)
	return nil
}

// StreamAppender appends a field map to a named stream. cache.RedisCache implements it.
type StreamAppender interface {
	AppendToStream(ctx context.Context, stream string, fields map[string]any) error
}

// StreamEmitter appends each event as one stream entry.
type StreamEmitter struct {
	appender StreamAppender
	stream   string
}

// NewStreamEmitter creates a StreamEmitter writing to stream.
func NewStreamEmitter(appender StreamAppender, stream string) *StreamEmitter {
	return &StreamEmitter{appender: appender, stream: stream}
}

func (e *StreamEmitter) Emit(ctx context.Context, ev models.AuditEvent) error {
	fields := map[string]any{
		"type":        string(ev.Type),
		"job_id":      ev.JobID,
		"actor_id":    ev.ActorID,
		"occurred_at": ev.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range ev.Data {
		fields["data."+k] = v
	}
	if err := e.appender.AppendToStream(ctx, e.stream, fields); err != nil {
		return fmt.Errorf("append audit event to %s: %w", e.stream, err)
	}
	return nil
}

// Multi fans an event out to every emitter and joins their errors.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, ev models.AuditEvent) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps events in memory. Used by tests and the memory store setup.
type Recorder struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (r *Recorder) Emit(_ context.Context, ev models.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []models.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AuditEvent(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

var (
	_ Emitter = (*LogEmitter)(nil)
	_ Emitter = (*StreamEmitter)(nil)
	_ Emitter = Multi(nil)
	_ Emitter = (*Recorder)(nil)
)
