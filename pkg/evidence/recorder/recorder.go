package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
)

var (
	// ErrBufferFull is returned by Record when the async buffer is full and
	// the record was dropped.
	ErrBufferFull = errors.New("evidence buffer full")

	// ErrClosed is returned by Record after Close.
	ErrClosed = errors.New("evidence recorder closed")
)

// Drop reasons passed to Config.OnDrop.
const (
	DropBufferFull = "buffer_full"
	DropStorage    = "storage"
	DropClosed     = "closed"
)

// Config contains configuration for the evidence recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing one record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// MaxErrorLength truncates stored error messages.
	// Default: 500
	MaxErrorLength int

	// OnDrop, when set, is called for every record that is not stored.
	OnDrop func(reason string)
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:    config.DefaultEvidenceAsyncBuffer,
		WriteTimeout:   config.DefaultEvidenceWriteTimeout,
		MaxErrorLength: 500,
	}
}

// ConfigFrom builds a recorder Config from the evidence section.
func ConfigFrom(cfg config.EvidenceConfig) *Config {
	c := DefaultConfig()
	if cfg.AsyncBuffer > 0 {
		c.AsyncBuffer = cfg.AsyncBuffer
	}
	if cfg.WriteTimeout > 0 {
		c.WriteTimeout = cfg.WriteTimeout
	}
	return c
}

// Recorder writes relay records to storage from a background goroutine so
// the chat handler never waits on the database.
//
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	storage    evidence.Storage
	config     *Config
	recordChan chan *evidence.RelayRecord
	wg         sync.WaitGroup
	logger     *slog.Logger

	// mu guards closed and sends on recordChan against Close.
	mu     sync.RWMutex
	closed bool
}

// NewRecorder creates a recorder writing to storage and starts its worker.
func NewRecorder(storage evidence.Storage, cfg *Config) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultEvidenceAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultEvidenceWriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		recordChan: make(chan *evidence.RelayRecord, cfg.AsyncBuffer),
		logger:     slog.Default().With("component", "evidence.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evidence recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// Record enqueues record for writing and returns immediately. A missing ID
// is filled with a new UUID and the error message is truncated.
//
// If the buffer is full the record is dropped and a RecorderError wrapping
// ErrBufferFull is returned; callers normally just log it.
func (r *Recorder) Record(ctx context.Context, record *evidence.RelayRecord) error {
	if r == nil || record == nil {
		return nil
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.Error = TruncateString(record.Error, r.config.MaxErrorLength)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped(DropClosed)
		return evidence.NewRecorderError(record.ID, ErrClosed)
	}

	select {
	case r.recordChan <- record:
		r.logger.DebugContext(ctx, "evidence record enqueued",
			"record_id", record.ID,
			"outcome", record.Outcome,
		)
		return nil
	default:
		r.logger.WarnContext(ctx, "evidence buffer full, dropping record",
			"record_id", record.ID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		r.dropped(DropBufferFull)
		return evidence.NewRecorderError(record.ID, ErrBufferFull)
	}
}

// Close stops accepting records, writes everything already queued and waits
// for the worker to exit. It is safe to call more than once.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	pending := len(r.recordChan)
	close(r.recordChan)
	r.mu.Unlock()

	r.logger.Info("draining evidence channel before shutdown", "pending_count", pending)
	r.wg.Wait()
	r.logger.Info("evidence recorder shut down complete")
	return nil
}

// worker drains the channel until Close closes it.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for record := range r.recordChan {
		r.writeRecord(record)
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(record *evidence.RelayRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	record.RecordedTime = start.UTC()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		r.dropped(DropStorage)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow evidence write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

func (r *Recorder) dropped(reason string) {
	if r.config.OnDrop != nil {
		r.config.OnDrop(reason)
	}
}
