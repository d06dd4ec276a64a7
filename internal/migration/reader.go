package migration

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// Reader detects and loads the pre-existing dataset from the on-device store.
// Malformed buckets are logged and treated as empty; reading is never fatal
// and never mutates the store.
type Reader struct {
	store localstore.Store
	log   zerolog.Logger
}

// NewReader constructs a reader over the given store.
func NewReader(store localstore.Store, log zerolog.Logger) *Reader {
	return &Reader{store: store, log: log.With().Str("component", "reader").Logger()}
}

// HasMigratableData reports whether any recognized record bucket is non-empty.
// A device whose migration already completed reports false: the wizard never
// runs twice unless the completion state is cleared by a rollback.
func (r *Reader) HasMigratableData() bool {
	state, err := LoadState(r.store)
	if err != nil {
		r.log.Warn().Err(err).Msg("unreadable migration state, assuming not completed")
	} else if state.Completed {
		return false
	}
	for _, t := range domain.TransferOrder() {
		records, ok := r.readBucket(t)
		if ok && len(records) > 0 {
			return true
		}
	}
	return false
}

// ReadDataset loads every recognized bucket. Missing or malformed serialized
// values are skipped with a warning.
func (r *Reader) ReadDataset() domain.LocalDataset {
	dataset := domain.NewLocalDataset()
	for _, t := range domain.TransferOrder() {
		records, ok := r.readBucket(t)
		if ok && len(records) > 0 {
			dataset.Records[t] = records
		}
	}
	return dataset
}

func (r *Reader) readBucket(t domain.RecordType) ([]domain.RawRecord, bool) {
	payload, err := r.store.Get(domain.BucketKey(t))
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			r.log.Warn().Err(err).Str("type", t.String()).Msg("bucket read failed, treating as empty")
		}
		return nil, false
	}
	records, err := domain.DecodeBucket(t, payload)
	if err != nil {
		r.log.Warn().Err(err).Str("type", t.String()).Msg("malformed bucket payload, treating as empty")
		return nil, false
	}
	return records, true
}

// ComputeStats counts records per type. Pure: it inspects only the dataset.
func ComputeStats(dataset domain.LocalDataset) domain.MigrationStats {
	stats := domain.MigrationStats{Counts: make(map[domain.RecordType]int)}
	for t, records := range dataset.Records {
		if len(records) > 0 {
			stats.Counts[t] = len(records)
		}
	}
	stats.HasProfile = dataset.HasProfile()
	return stats
}
