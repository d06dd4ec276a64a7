package migration

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// RollbackManager restores the on-device store from the restore point or a
// user-supplied backup artifact and clears the completion state.
type RollbackManager struct {
	store   localstore.Store
	backups *BackupManager
	reader  *Reader
	log     zerolog.Logger
}

// NewRollbackManager constructs a rollback manager.
func NewRollbackManager(store localstore.Store, backups *BackupManager, log zerolog.Logger) *RollbackManager {
	return &RollbackManager{
		store:   store,
		backups: backups,
		reader:  NewReader(store, log),
		log:     log.With().Str("component", "rollback").Logger(),
	}
}

// Restore overwrites every recognized key from the given artifact, or from
// the active restore point when source is nil, and clears the completion
// state. Returns false without error when no restore source is available; the
// store is left untouched in that case. A restore point is consumed by a
// successful restore.
func (m *RollbackManager) Restore(source *domain.BackupArtifact) (bool, error) {
	var dataset domain.LocalDataset
	fromSlot := false
	if source != nil {
		dataset = source.Data
	} else {
		point, err := m.backups.LoadRestorePoint()
		if err != nil {
			if errors.Is(err, ErrNoRestorePoint) {
				return false, nil
			}
			return false, err
		}
		dataset = point.Data
		fromSlot = true
	}

	if err := writeDataset(m.store, dataset); err != nil {
		return false, err
	}
	if err := ClearState(m.store); err != nil {
		return false, err
	}
	if fromSlot {
		if err := m.backups.ReleaseRestorePoint(); err != nil {
			return false, err
		}
	}
	m.log.Info().Bool("fromRestorePoint", fromSlot).Msg("on-device store restored")
	return true, nil
}

// ImportResult reports the outcome of importing an external backup artifact.
type ImportResult struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Stats   domain.MigrationStats `json:"stats"`
}

// ImportArtifact parses an externally supplied backup and re-validates it.
// Only a valid backup is applied, and a fresh restore point of the current
// on-device state is taken before overwriting it. Accepts the wrapped {timestamp, data} form or
// a bare dataset for backward compatibility. On any failure the store is left
// unchanged.
func (m *RollbackManager) ImportArtifact(raw []byte) ImportResult {
	artifact, err := DecodeArtifact(raw)
	if err != nil {
		return ImportResult{Message: fmt.Sprintf("unreadable backup: %v", err)}
	}
	if artifact.Data.IsEmpty() {
		return ImportResult{Message: "backup contains no records"}
	}
	if report := Validate(artifact.Data); !report.Valid {
		return ImportResult{Message: fmt.Sprintf("backup failed validation with %d issue(s): %s", len(report.Errors), report.Errors[0])}
	}

	// Safety net: snapshot whatever the device holds right now.
	current := m.reader.ReadDataset()
	if err := m.backups.CreateRestorePoint(current); err != nil {
		return ImportResult{Message: fmt.Sprintf("could not create restore point: %v", err)}
	}
	if err := writeDataset(m.store, artifact.Data); err != nil {
		return ImportResult{Message: fmt.Sprintf("could not write imported data: %v", err)}
	}
	if err := ClearState(m.store); err != nil {
		return ImportResult{Message: fmt.Sprintf("could not clear completion state: %v", err)}
	}

	stats := ComputeStats(artifact.Data)
	return ImportResult{
		Success: true,
		Message: fmt.Sprintf("imported %d record(s)", stats.Total()),
		Stats:   stats,
	}
}

// DecodeArtifact parses a serialized backup in either the wrapped
// {timestamp, data} form or the bare dataset form.
func DecodeArtifact(raw []byte) (domain.BackupArtifact, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return domain.BackupArtifact{}, err
	}
	if _, wrapped := probe["data"]; wrapped {
		var artifact domain.BackupArtifact
		if err := json.Unmarshal(raw, &artifact); err != nil {
			return domain.BackupArtifact{}, err
		}
		return artifact, nil
	}
	var dataset domain.LocalDataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		return domain.BackupArtifact{}, err
	}
	return domain.BackupArtifact{Data: dataset}, nil
}

// writeDataset overwrites every recognized bucket key: present types get
// their serialized records, absent types are removed so no stale bucket
// survives the restore.
func writeDataset(store localstore.Store, dataset domain.LocalDataset) error {
	for _, t := range domain.TransferOrder() {
		key := domain.BucketKey(t)
		records := dataset.Records[t]
		if len(records) == 0 {
			if err := store.Delete(key); err != nil {
				return fmt.Errorf("clear bucket %s: %w", key, err)
			}
			continue
		}
		payload, err := domain.EncodeBucket(t, records)
		if err != nil {
			return fmt.Errorf("encode bucket %s: %w", key, err)
		}
		if err := store.Put(key, payload); err != nil {
			return fmt.Errorf("write bucket %s: %w", key, err)
		}
	}
	return nil
}
