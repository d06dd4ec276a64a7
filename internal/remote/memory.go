package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// MemoryWriter collects records in process. It backs tests and the CLI's
// dry-run mode. FailFn, when set, is consulted per record to simulate remote
// rejections.
type MemoryWriter struct {
	mu      sync.Mutex
	records map[domain.RecordType][]domain.RawRecord
	seq     int

	// FailFn returns a non-nil error for records the fake backend rejects.
	FailFn func(t domain.RecordType, record domain.RawRecord) error
}

// NewMemoryWriter constructs an empty in-process writer.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{records: make(map[domain.RecordType][]domain.RawRecord)}
}

// Add stores the record, or rejects it when FailFn says so.
func (w *MemoryWriter) Add(_ context.Context, t domain.RecordType, record domain.RawRecord) (RemoteRecord, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailFn != nil {
		if err := w.FailFn(t, record); err != nil {
			return RemoteRecord{}, &WriteError{Type: t, ID: record.ID(), Err: err}
		}
	}
	w.seq++
	w.records[t] = append(w.records[t], record.Clone())
	return RemoteRecord{ID: fmt.Sprintf("remote-%04d", w.seq), Type: t}, nil
}

// Count returns the number of records accepted for a type.
func (w *MemoryWriter) Count(t domain.RecordType) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records[t])
}

// Records returns a copy of the accepted records for a type.
func (w *MemoryWriter) Records(t domain.RecordType) []domain.RawRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.RawRecord, 0, len(w.records[t]))
	for _, r := range w.records[t] {
		out = append(out, r.Clone())
	}
	return out
}
