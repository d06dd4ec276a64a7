package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// endpoints is the dispatch table from record type to REST resource. Adding a
// new record type is a table entry, not a new conditional branch. Types
// absent from the table fall back to the generic records resource.
var endpoints = map[domain.RecordType]string{
	domain.TypeSupplier:             "/api/suppliers",
	domain.TypeProductType:          "/api/product-types",
	domain.TypeStorageUnit:          "/api/storage-units",
	domain.TypeDeliveryRecord:       "/api/delivery-records",
	domain.TypeStorageRecord:        "/api/storage-records",
	domain.TypeTechnicalSheet:       "/api/technical-sheets",
	domain.TypeEstablishmentProfile: "/api/establishment",
}

const genericEndpointPrefix = "/api/records/"

// HTTPConfig parameterizes the REST writer.
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration // per request, default 15s
	// MaxElapsed bounds the retry window per record, default 30s.
	MaxElapsed time.Duration
}

// HTTPWriter posts records to the multi-tenant REST backend. Transient
// failures (network errors, 5xx) are retried with exponential backoff;
// client errors are permanent and surface immediately.
type HTTPWriter struct {
	cfg    HTTPConfig
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPWriter constructs a REST writer.
func NewHTTPWriter(cfg HTTPConfig, log zerolog.Logger) (*HTTPWriter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 30 * time.Second
	}
	return &HTTPWriter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("component", "remote").Logger(),
	}, nil
}

func endpointFor(t domain.RecordType) string {
	if path, ok := endpoints[t]; ok {
		return path
	}
	return genericEndpointPrefix + string(t)
}

// Add posts one record and returns the remote identity assigned by the
// backend.
func (w *HTTPWriter) Add(ctx context.Context, t domain.RecordType, record domain.RawRecord) (RemoteRecord, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return RemoteRecord{}, &WriteError{Type: t, ID: record.ID(), Err: err}
	}

	var remote RemoteRecord
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+endpointFor(t), bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if w.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+w.cfg.Token)
		}
		// Natural key so an idempotent backend can upsert on retry.
		if id := record.ID(); id != "" {
			req.Header.Set("X-Local-ID", id)
		}

		resp, err := w.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			remote = RemoteRecord{Type: t}
			if err := json.Unmarshal(body, &remote); err != nil || remote.ID == "" {
				// Backend may answer with an empty body; keep the local id.
				remote = RemoteRecord{ID: record.ID(), Type: t}
			}
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		default:
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
		}
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxElapsedTime = w.cfg.MaxElapsed
	if err := backoff.Retry(operation, expBackoff); err != nil {
		w.log.Warn().Err(err).Str("type", t.String()).Str("id", record.ID()).Msg("remote write failed")
		return RemoteRecord{}, &WriteError{Type: t, ID: record.ID(), Err: err}
	}
	return remote, nil
}
