package usage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecorder_WritesThroughWorker(t *testing.T) {
	storage := NewMemoryStorage()
	recorder := NewRecorder(storage, &Config{Enabled: true, Buffer: 10, WriteTimeout: time.Second})

	recorder.Record("key-1", "client-1", "/api/data", 200)
	recorder.Record("key-1", "client-1", "/api/data", 200)
	recorder.Record("key-2", "client-2", "/api/other", 503)

	// Close drains the channel before returning.
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	count, err := storage.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 records, got %d", count)
	}

	summaries, err := storage.SummarizeByClient(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("SummarizeByClient failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Endpoint != "/api/data" || summaries[0].Requests != 2 {
		t.Errorf("Unexpected summary: %+v", summaries)
	}
}

func TestRecorder_Disabled(t *testing.T) {
	storage := NewMemoryStorage()
	recorder := NewRecorder(storage, &Config{Enabled: false})

	recorder.Record("key-1", "client-1", "/api/data", 200)
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	count, _ := storage.Count(context.Background())
	if count != 0 {
		t.Errorf("Expected no records from disabled recorder, got %d", count)
	}
}

// failingStorage rejects all writes.
type failingStorage struct {
	MemoryStorage
}

func (f *failingStorage) Store(ctx context.Context, record *Record) error {
	return NewStorageError("test", "store", errors.New("disk full"))
}

func TestRecorder_StorageFailureIsSwallowed(t *testing.T) {
	recorder := NewRecorder(&failingStorage{}, &Config{Enabled: true, Buffer: 10, WriteTimeout: time.Second})

	// Record never returns an error: a failure to record usage must not
	// affect the already-admitted request.
	recorder.Record("key-1", "client-1", "/api/data", 200)

	if err := recorder.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestRecorder_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	// blockedStorage keeps the worker busy so the buffer fills up.
	release := make(chan struct{})
	storage := &blockedStorage{release: release}
	recorder := NewRecorder(storage, &Config{Enabled: true, Buffer: 1, WriteTimeout: time.Second})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			recorder.Record("key-1", "client-1", "/api/data", 200)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	close(release)
	recorder.Close()
}

type blockedStorage struct {
	MemoryStorage
	release chan struct{}
}

func (b *blockedStorage) Store(ctx context.Context, record *Record) error {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return b.MemoryStorage.Store(ctx, record)
}
