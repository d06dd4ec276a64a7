package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// PostgresWriter writes records straight into the tenant database. Used for
// server-side imports where the migration runs next to the backend instead of
// going through the REST surface. Writes are upserts keyed by the record's
// local id, so a retried migration attempt does not duplicate rows.
type PostgresWriter struct {
	db     *sql.DB
	tenant string
}

// NewPostgresWriter opens the tenant database and ensures the import table.
func NewPostgresWriter(dsn, tenantID string) (*PostgresWriter, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN required")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS migrated_records (
		tenant_id   TEXT NOT NULL,
		record_type TEXT NOT NULL,
		local_id    TEXT NOT NULL,
		payload     JSONB NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (tenant_id, record_type, local_id)
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure migrated_records table: %w", err)
	}
	return &PostgresWriter{db: db, tenant: tenantID}, nil
}

// Add upserts one record into the tenant's import table.
func (w *PostgresWriter) Add(ctx context.Context, t domain.RecordType, record domain.RawRecord) (RemoteRecord, error) {
	id := record.ID()
	if id == "" {
		return RemoteRecord{}, &WriteError{Type: t, Err: fmt.Errorf("record has no identifier")}
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return RemoteRecord{}, &WriteError{Type: t, ID: id, Err: err}
	}
	_, err = w.db.ExecContext(ctx, `
		INSERT INTO migrated_records (tenant_id, record_type, local_id, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, record_type, local_id) DO UPDATE SET payload = excluded.payload`,
		w.tenant, string(t), id, payload,
	)
	if err != nil {
		return RemoteRecord{}, &WriteError{Type: t, ID: id, Err: err}
	}
	return RemoteRecord{ID: fmt.Sprintf("%s/%s/%s", w.tenant, t, id), Type: t}, nil
}

// Close releases the underlying database handle.
func (w *PostgresWriter) Close() error { return w.db.Close() }
