package migration

import (
	"testing"
	"time"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

func fixedClock() time.Time { return fixedNow }

func TestPrepareFillsDefaults(t *testing.T) {
	d := domain.NewLocalDataset()
	d.Records[domain.TypeSupplier] = []domain.RawRecord{
		{"name": "Acme"}, // no id, no createdAt, no active flag
	}
	clean := NewNormalizer(fixedClock).Prepare(d)

	records := clean.Records[domain.TypeSupplier]
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ID() != "supplier-0001" {
		t.Fatalf("derived id %q", r.ID())
	}
	if r.StringField("createdAt") != fixedNow.Format(time.RFC3339) {
		t.Fatalf("createdAt %q", r.StringField("createdAt"))
	}
	if r["active"] != true {
		t.Fatalf("active default %v", r["active"])
	}
}

func TestPrepareKeepsExistingValues(t *testing.T) {
	d := domain.NewLocalDataset()
	d.Records[domain.TypeSupplier] = []domain.RawRecord{
		{"id": "s1", "name": "Acme", "createdAt": "2024-01-01T00:00:00Z", "active": false},
	}
	clean := NewNormalizer(fixedClock).Prepare(d)
	r := clean.Records[domain.TypeSupplier][0]
	if r.ID() != "s1" {
		t.Fatalf("id overwritten: %q", r.ID())
	}
	if r.StringField("createdAt") != "2024-01-01T00:00:00Z" {
		t.Fatalf("createdAt overwritten: %q", r.StringField("createdAt"))
	}
	if r["active"] != false {
		t.Fatal("explicit active=false overwritten")
	}
}

func TestPrepareDerivedIDsAreStable(t *testing.T) {
	d := domain.NewLocalDataset()
	d.Records[domain.TypeSupplier] = []domain.RawRecord{
		{"name": "First"},
		{"name": "Second"},
	}
	n := NewNormalizer(fixedClock)
	a := n.Prepare(d)
	b := n.Prepare(d)
	for i := range a.Records[domain.TypeSupplier] {
		idA := a.Records[domain.TypeSupplier][i].ID()
		idB := b.Records[domain.TypeSupplier][i].ID()
		if idA != idB {
			t.Fatalf("derived id changed between runs: %q vs %q", idA, idB)
		}
	}
}

func TestPrepareCoercesNumericStrings(t *testing.T) {
	d := domain.NewLocalDataset()
	d.Records[domain.TypeStorageRecord] = []domain.RawRecord{
		{"id": "r1", "storageUnitId": "u1", "temperature": " -18.5 "},
	}
	clean := NewNormalizer(fixedClock).Prepare(d)
	r := clean.Records[domain.TypeStorageRecord][0]
	if r["temperature"] != float64(-18.5) {
		t.Fatalf("temperature not coerced: %v (%T)", r["temperature"], r["temperature"])
	}
}

func TestPrepareDropsInvalidRecordsOnly(t *testing.T) {
	d := domain.NewLocalDataset()
	d.Records[domain.TypeSupplier] = []domain.RawRecord{
		{"id": "s1", "name": "Acme"},
		{"id": "s2"}, // missing name
		{"id": "s3", "name": "Gamma"},
	}
	clean := NewNormalizer(fixedClock).Prepare(d)
	records := clean.Records[domain.TypeSupplier]
	if len(records) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(records))
	}
	if records[0].ID() != "s1" || records[1].ID() != "s3" {
		t.Fatalf("order not preserved: %s, %s", records[0].ID(), records[1].ID())
	}
}

func TestPrepareDoesNotMutateInput(t *testing.T) {
	d := domain.NewLocalDataset()
	d.Records[domain.TypeSupplier] = []domain.RawRecord{{"name": "Acme"}}
	NewNormalizer(fixedClock).Prepare(d)
	if d.Records[domain.TypeSupplier][0].HasField("id") {
		t.Fatal("normalization mutated the source dataset")
	}
}

func TestPrepareNoActiveFlagForRecords(t *testing.T) {
	d := domain.NewLocalDataset()
	d.Records[domain.TypeDeliveryRecord] = []domain.RawRecord{
		{"id": "d1", "supplierId": "s1", "productTypeId": "p1"},
	}
	clean := NewNormalizer(fixedClock).Prepare(d)
	if clean.Records[domain.TypeDeliveryRecord][0].HasField("active") {
		t.Fatal("active flag applies only to catalog types")
	}
}
