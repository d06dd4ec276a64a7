package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/blob"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

func newTestBackupManager(store localstore.Store, blobs blob.Store) *BackupManager {
	m := NewBackupManager(store, blobs, testLogger())
	m.nowFn = func() time.Time { return fixedNow }
	seq := 0
	m.newIDFn = func() string {
		seq++
		return fmt.Sprintf("artifact-%04d", seq)
	}
	return m
}

func TestCreateArtifactWrapsDataset(t *testing.T) {
	store := localstore.NewMemory()
	seedStore(t, store)
	dataset := NewReader(store, testLogger()).ReadDataset()

	m := newTestBackupManager(store, nil)
	artifact, payload, err := m.CreateArtifact(dataset)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if artifact.ID == "" {
		t.Fatal("artifact has no id")
	}
	if !artifact.Timestamp.Equal(fixedNow) {
		t.Fatalf("timestamp %v", artifact.Timestamp)
	}

	var envelope struct {
		ID        string          `json:"id"`
		Timestamp string          `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		t.Fatalf("payload not an envelope: %v", err)
	}
	if envelope.Data == nil {
		t.Fatal("envelope missing data")
	}

	back, err := DecodeArtifact(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Data.Count(domain.TypeSupplier) != dataset.Count(domain.TypeSupplier) {
		t.Fatal("artifact data diverges from dataset")
	}
}

func TestArtifactIsImmutableSnapshot(t *testing.T) {
	store := localstore.NewMemory()
	seedStore(t, store)
	dataset := NewReader(store, testLogger()).ReadDataset()

	m := newTestBackupManager(store, nil)
	artifact, _, err := m.CreateArtifact(dataset)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	dataset.Records[domain.TypeSupplier][0]["name"] = "Mutated"
	if artifact.Data.Records[domain.TypeSupplier][0].StringField("name") == "Mutated" {
		t.Fatal("artifact shares record maps with the live dataset")
	}
}

func TestExportArtifact(t *testing.T) {
	store := localstore.NewMemory()
	seedStore(t, store)
	blobs := blob.NewMemory()
	m := newTestBackupManager(store, blobs)
	dataset := NewReader(store, testLogger()).ReadDataset()

	artifact, payload, err := m.CreateArtifact(dataset)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	info, err := m.ExportArtifact(context.Background(), artifact, payload)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(info.Key, "backups/") || !strings.HasSuffix(info.Key, ".json") {
		t.Fatalf("unexpected key %s", info.Key)
	}

	_, rc, err := blobs.Get(context.Background(), info.Key)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	stored, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(stored) != string(payload) {
		t.Fatal("exported payload differs")
	}
}

func TestExportArtifactWithoutDestination(t *testing.T) {
	m := newTestBackupManager(localstore.NewMemory(), nil)
	if _, err := m.ExportArtifact(context.Background(), domain.BackupArtifact{}, nil); err == nil {
		t.Fatal("expected error without blob store")
	}
}

func TestRestorePointSingleSlot(t *testing.T) {
	store := localstore.NewMemory()
	m := newTestBackupManager(store, nil)

	first := domain.NewLocalDataset()
	first.Records[domain.TypeSupplier] = []domain.RawRecord{{"id": "s1", "name": "First"}}
	if err := m.CreateRestorePoint(first); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := domain.NewLocalDataset()
	second.Records[domain.TypeSupplier] = []domain.RawRecord{{"id": "s2", "name": "Second"}}
	if err := m.CreateRestorePoint(second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	point, err := m.LoadRestorePoint()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if point.Data.Count(domain.TypeSupplier) != 1 {
		t.Fatalf("unexpected record count %d", point.Data.Count(domain.TypeSupplier))
	}
	if got := point.Data.Records[domain.TypeSupplier][0].ID(); got != "s2" {
		t.Fatalf("slot holds %s, want the newer snapshot", got)
	}
}

func TestRestorePointInfoPeek(t *testing.T) {
	store := localstore.NewMemory()
	m := newTestBackupManager(store, nil)

	info, err := m.RestorePointInfo()
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Exists {
		t.Fatal("empty slot reported as occupied")
	}

	d := domain.NewLocalDataset()
	d.Records[domain.TypeSupplier] = []domain.RawRecord{{"id": "s1", "name": "Acme"}}
	if err := m.CreateRestorePoint(d); err != nil {
		t.Fatalf("create: %v", err)
	}
	info, err = m.RestorePointInfo()
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !info.Exists || !info.CreatedAt.Equal(fixedNow) || info.SizeBytes == 0 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestReleaseRestorePoint(t *testing.T) {
	store := localstore.NewMemory()
	m := newTestBackupManager(store, nil)

	// releasing an empty slot is a no-op
	if err := m.ReleaseRestorePoint(); err != nil {
		t.Fatalf("release empty: %v", err)
	}

	d := domain.NewLocalDataset()
	d.Records[domain.TypeSupplier] = []domain.RawRecord{{"id": "s1", "name": "Acme"}}
	if err := m.CreateRestorePoint(d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.ReleaseRestorePoint(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := m.LoadRestorePoint(); !errors.Is(err, ErrNoRestorePoint) {
		t.Fatalf("expected ErrNoRestorePoint, got %v", err)
	}
}
