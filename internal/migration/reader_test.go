package migration

import (
	"testing"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

func TestHasMigratableData(t *testing.T) {
	store := localstore.NewMemory()
	reader := NewReader(store, testLogger())
	if reader.HasMigratableData() {
		t.Fatal("empty store must not report migratable data")
	}

	seedStore(t, store)
	if !reader.HasMigratableData() {
		t.Fatal("seeded store must report migratable data")
	}
}

func TestHasMigratableDataIsIdempotent(t *testing.T) {
	store := localstore.NewMemory()
	seedStore(t, store)
	reader := NewReader(store, testLogger())

	first := reader.HasMigratableData()
	for i := 0; i < 5; i++ {
		if reader.HasMigratableData() != first {
			t.Fatal("repeated detection changed its answer")
		}
	}
	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 6 {
		t.Fatalf("detection mutated the store, keys now %v", keys)
	}
}

func TestHasMigratableDataFalseAfterCompletion(t *testing.T) {
	store := localstore.NewMemory()
	seedStore(t, store)
	if err := SaveState(store, domain.MigrationState{Completed: true, CompletedAt: fixedNow}); err != nil {
		t.Fatalf("save state: %v", err)
	}
	reader := NewReader(store, testLogger())
	if reader.HasMigratableData() {
		t.Fatal("completed device must not re-offer migration")
	}
}

func TestReadDatasetSkipsMalformedBuckets(t *testing.T) {
	store := localstore.NewMemory()
	seedStore(t, store)
	if err := store.Put(domain.BucketKey(domain.TypeTechnicalSheet), []byte(`{broken`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	reader := NewReader(store, testLogger())
	dataset := reader.ReadDataset()
	if dataset.Count(domain.TypeTechnicalSheet) != 0 {
		t.Fatal("malformed bucket should read as empty")
	}
	if dataset.Count(domain.TypeSupplier) != 2 {
		t.Fatalf("healthy buckets should still load, got %d suppliers", dataset.Count(domain.TypeSupplier))
	}
}

func TestReadDatasetProfileSingleObject(t *testing.T) {
	store := localstore.NewMemory()
	if err := store.Put(domain.BucketKey(domain.TypeEstablishmentProfile), []byte(`{"name":"Bar Paco"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	reader := NewReader(store, testLogger())
	dataset := reader.ReadDataset()
	if !dataset.HasProfile() {
		t.Fatal("single-object profile bucket not recognized")
	}
}

func TestComputeStats(t *testing.T) {
	store := localstore.NewMemory()
	seedStore(t, store)
	reader := NewReader(store, testLogger())
	stats := ComputeStats(reader.ReadDataset())

	if stats.Counts[domain.TypeSupplier] != 2 {
		t.Fatalf("supplier count %d, want 2", stats.Counts[domain.TypeSupplier])
	}
	if stats.Total() != 7 {
		t.Fatalf("total %d, want 7", stats.Total())
	}
	if !stats.HasProfile {
		t.Fatal("profile flag not set")
	}
	if _, present := stats.Counts[domain.TypeTechnicalSheet]; present {
		t.Fatal("empty type must not appear in counts")
	}
}
