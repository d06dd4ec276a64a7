package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/blob"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// ErrNoRestorePoint is returned when a rollback is requested but no restore
// point is stored.
var ErrNoRestorePoint = errors.New("migration: no restore point available")

// RestorePointInfo describes the stored restore point without deserializing
// its full payload.
type RestorePointInfo struct {
	Exists    bool      `json:"exists"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	SizeBytes int       `json:"sizeBytes,omitempty"`
}

// BackupManager produces backup artifacts and manages the single-slot restore
// point. Artifact destinations (file download, blob store) are the caller's
// concern; this component only produces the bytes and, when a blob store is
// configured, exports them.
type BackupManager struct {
	store   localstore.Store
	blobs   blob.Store // optional export destination
	log     zerolog.Logger
	nowFn   func() time.Time
	newIDFn func() string
}

// NewBackupManager constructs a backup manager. blobs may be nil when no
// export destination is configured.
func NewBackupManager(store localstore.Store, blobs blob.Store, log zerolog.Logger) *BackupManager {
	return &BackupManager{
		store:   store,
		blobs:   blobs,
		log:     log.With().Str("component", "backup").Logger(),
		nowFn:   func() time.Time { return time.Now().UTC() },
		newIDFn: func() string { return uuid.NewString() },
	}
}

// CreateArtifact wraps the dataset with a creation timestamp and returns the
// artifact along with its serialized form. Artifacts are immutable and
// independent of the restore point.
func (m *BackupManager) CreateArtifact(dataset domain.LocalDataset) (domain.BackupArtifact, []byte, error) {
	artifact := domain.BackupArtifact{
		ID:        m.newIDFn(),
		Timestamp: m.nowFn(),
		Data:      dataset.Clone(),
	}
	payload, err := json.Marshal(artifact)
	if err != nil {
		return domain.BackupArtifact{}, nil, fmt.Errorf("encode backup artifact: %w", err)
	}
	return artifact, payload, nil
}

// ExportArtifact writes the artifact to the configured blob store under
// backups/<timestamp>-<id>.json.
func (m *BackupManager) ExportArtifact(ctx context.Context, artifact domain.BackupArtifact, payload []byte) (blob.Info, error) {
	if m.blobs == nil {
		return blob.Info{}, fmt.Errorf("no blob store configured")
	}
	key := fmt.Sprintf("backups/%s-%s.json", artifact.Timestamp.Format("20060102T150405Z"), artifact.ID)
	info, err := m.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"artifact_id": artifact.ID},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("export artifact: %w", err)
	}
	m.log.Info().Str("key", info.Key).Int64("size", info.Size).Msg("backup artifact exported")
	return info, nil
}

// CreateRestorePoint acquires the restore point slot, overwriting any prior
// occupant. At most one restore point exists at a time.
func (m *BackupManager) CreateRestorePoint(dataset domain.LocalDataset) error {
	point := domain.RestorePoint{CreatedAt: m.nowFn(), Data: dataset.Clone()}
	payload, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("encode restore point: %w", err)
	}
	if err := m.store.Put(localstore.KeyRestorePoint, payload); err != nil {
		return fmt.Errorf("store restore point: %w", err)
	}
	m.log.Info().Time("createdAt", point.CreatedAt).Msg("restore point created")
	return nil
}

// RestorePointInfo introspects the slot. Only the envelope timestamp is
// decoded; the dataset payload stays raw.
func (m *BackupManager) RestorePointInfo() (RestorePointInfo, error) {
	payload, err := m.store.Get(localstore.KeyRestorePoint)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return RestorePointInfo{}, nil
		}
		return RestorePointInfo{}, err
	}
	var envelope struct {
		CreatedAt time.Time       `json:"createdAt"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return RestorePointInfo{}, fmt.Errorf("decode restore point envelope: %w", err)
	}
	return RestorePointInfo{Exists: true, CreatedAt: envelope.CreatedAt, SizeBytes: len(payload)}, nil
}

// LoadRestorePoint consumes nothing; it decodes the full slot payload.
func (m *BackupManager) LoadRestorePoint() (domain.RestorePoint, error) {
	payload, err := m.store.Get(localstore.KeyRestorePoint)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return domain.RestorePoint{}, ErrNoRestorePoint
		}
		return domain.RestorePoint{}, err
	}
	var point domain.RestorePoint
	if err := json.Unmarshal(payload, &point); err != nil {
		return domain.RestorePoint{}, fmt.Errorf("decode restore point: %w", err)
	}
	return point, nil
}

// ReleaseRestorePoint frees the slot. Releasing an empty slot is a no-op.
func (m *BackupManager) ReleaseRestorePoint() error {
	return m.store.Delete(localstore.KeyRestorePoint)
}
