package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
)

// DBHandler is an slog.Handler that batches ERROR+ records into the
// system_logs table. Well-known attributes get their own columns; the rest
// land in Extra.
type DBHandler struct {
	sink  *dbSink
	attrs []slog.Attr
	group string
}

type dbSink struct {
	db        *gorm.DB
	fallback  *slog.Logger
	batchSize int

	mu     sync.Mutex
	buffer []models.SystemLog

	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

type DBHandlerOption func(*dbSink)

func WithBatchSize(n int) DBHandlerOption {
	return func(s *dbSink) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithFallback sets where the sink reports its own failures. It must not
// lead back to the DBHandler.
func WithFallback(l *slog.Logger) DBHandlerOption {
	return func(s *dbSink) { s.fallback = l }
}

func NewDBHandler(db *gorm.DB, flushInterval time.Duration, opts ...DBHandlerOption) *DBHandler {
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	s := &dbSink{
		db:        db,
		fallback:  slog.New(slog.DiscardHandler),
		batchSize: defaultBatchSize,
		ticker:    time.NewTicker(flushInterval),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buffer = make([]models.SystemLog, 0, s.batchSize)

	go s.flushLoop()
	return &DBHandler{sink: s}
}

// Stop flushes what is buffered and ends the background loop.
func (h *DBHandler) Stop() {
	h.sink.stopOnce.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	<-h.sink.stopped
}

// Enabled only handles ERROR and above.
func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time.UTC(),
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	for _, a := range h.attrs {
		lift(&entry, extra, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		lift(&entry, extra, a)
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.sink.add(entry)
	return nil
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *DBHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return &next
}

func lift(entry *models.SystemLog, extra map[string]interface{}, a slog.Attr) {
	v := a.Value.Resolve()
	switch a.Key {
	case "path":
		entry.Path = v.String()
	case "trace_id", "request_id":
		entry.TraceID = v.String()
	case "user_id":
		s := v.String()
		entry.UserID = &s
	case "action":
		entry.Action = v.String()
	case "error":
		entry.Error = v.String()
	case "latency_ms":
		switch v.Kind() {
		case slog.KindFloat64:
			entry.LatencyMs = int(math.Round(v.Float64()))
		case slog.KindInt64:
			entry.LatencyMs = int(v.Int64())
		case slog.KindDuration:
			entry.LatencyMs = int(v.Duration().Milliseconds())
		}
	default:
		if v.Kind() == slog.KindAny {
			if err, ok := v.Any().(error); ok {
				extra[a.Key] = err.Error()
				return
			}
		}
		extra[a.Key] = v.Any()
	}
}

func (s *dbSink) add(entry models.SystemLog) {
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	full := len(s.buffer) >= s.batchSize
	s.mu.Unlock()

	if full {
		go s.flush()
	}
}

func (s *dbSink) flushLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *dbSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, s.batchSize)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.WithContext(ctx).CreateInBatches(batch, s.batchSize).Error; err != nil {
		s.fallback.Error("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}
