package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config contains configuration for the usage recorder.
type Config struct {
	// Enabled enables usage recording.
	Enabled bool

	// Buffer is the size of the async write channel buffer.
	// Default: 1000
	Buffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Buffer:       1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder appends usage records asynchronously. Record never blocks the
// calling request: if the buffer is full the record is dropped with a log
// line, and storage failures are logged by the worker, never propagated.
type Recorder struct {
	storage    Storage
	config     *Config
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger
}

// NewRecorder creates a usage recorder on the given storage backend and
// starts its background worker.
func NewRecorder(storage Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Buffer <= 0 {
		config.Buffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *Record, config.Buffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "usage.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("usage recorder initialized",
		"buffer", config.Buffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues one usage record. It returns immediately; a full buffer
// drops the record rather than delaying the already-admitted request.
func (r *Recorder) Record(keyID, clientID, endpoint string, statusCode int) {
	if !r.config.Enabled {
		return
	}

	record := &Record{
		ID:         uuid.New().String(),
		KeyID:      keyID,
		ClientID:   clientID,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		RecordedAt: time.Now().UTC(),
	}

	select {
	case r.recordChan <- record:
	default:
		r.logger.Error("usage record channel full, dropping record",
			"record_id", record.ID,
			"key_id", record.KeyID,
			"channel_capacity", r.config.Buffer,
		)
	}
}

// Close shuts the recorder down, draining buffered records to storage
// before returning.
func (r *Recorder) Close() error {
	r.logger.Info("shutting down usage recorder")

	close(r.done)
	r.wg.Wait()

	r.logger.Info("usage recorder shut down complete")
	return nil
}

// worker drains the record channel and writes records to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			// Drain remaining records before exit.
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

// writeRecord writes a single record, logging and swallowing any failure.
func (r *Recorder) writeRecord(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store usage record",
			"record_id", record.ID,
			"key_id", record.KeyID,
			"error", err,
		)
		return
	}

	r.logger.Debug("usage recorded",
		"record_id", record.ID,
		"key_id", record.KeyID,
		"endpoint", record.Endpoint,
		"status_code", record.StatusCode,
	)
}
