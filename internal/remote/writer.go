// Package remote implements the write side of the multi-tenant service as
// seen by the migration pipeline. The orchestrator treats a Writer as an
// opaque capability and only inspects success or failure per record.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// RemoteRecord describes the remote identity assigned to a migrated record.
type RemoteRecord struct {
	ID   string            `json:"id"`
	Type domain.RecordType `json:"type"`
}

// WriteError wraps a per-record remote write failure with its attribution.
type WriteError struct {
	Type domain.RecordType
	ID   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("remote write %s %s: %v", e.Type, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer adds one record of a given type to the remote service. Timeouts and
// transport retries are the writer's responsibility; the caller treats any
// returned error as a per-record failure.
type Writer interface {
	Add(ctx context.Context, t domain.RecordType, record domain.RawRecord) (RemoteRecord, error)
}

// Driver identifies a concrete writer implementation.
type Driver string

const (
	// DriverHTTP posts records to the REST backend.
	DriverHTTP Driver = "http"
	// DriverPostgres writes directly into the tenant database (server-side imports).
	DriverPostgres Driver = "postgres"
	// DriverMemory collects records in process (tests, dry runs).
	DriverMemory Driver = "memory"
)

// Config selects and parameterizes a writer backend.
type Config struct {
	Driver     Driver
	BaseURL    string // http driver
	Token      string // http driver bearer token
	Timeout    time.Duration
	MaxElapsed time.Duration
	DSN        string // postgres driver
	TenantID   string // postgres driver
}

// Open constructs the configured writer backend.
func Open(cfg Config, log zerolog.Logger) (Writer, error) {
	switch cfg.Driver {
	case DriverHTTP, "":
		return NewHTTPWriter(HTTPConfig{
			BaseURL:    cfg.BaseURL,
			Token:      cfg.Token,
			Timeout:    cfg.Timeout,
			MaxElapsed: cfg.MaxElapsed,
		}, log)
	case DriverPostgres:
		return NewPostgresWriter(cfg.DSN, cfg.TenantID)
	case DriverMemory:
		return NewMemoryWriter(), nil
	default:
		return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
	}
}
