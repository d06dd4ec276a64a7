package domain

import (
	"encoding/json"
	"testing"
)

func TestDatasetJSONRoundTrip(t *testing.T) {
	d := NewLocalDataset()
	d.Records[TypeSupplier] = []RawRecord{
		{"id": "s1", "name": "Acme"},
		{"id": "s2", "name": "Beta"},
	}
	d.Records[TypeStorageRecord] = []RawRecord{
		{"id": "r1", "storageUnitId": "u1", "temperature": float64(-18)},
	}
	d.Records[TypeEstablishmentProfile] = []RawRecord{
		{"name": "Bar Paco", "city": "Valencia"},
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back LocalDataset
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Count(TypeSupplier) != 2 {
		t.Fatalf("expected 2 suppliers, got %d", back.Count(TypeSupplier))
	}
	if back.Count(TypeStorageRecord) != 1 {
		t.Fatalf("expected 1 storage record, got %d", back.Count(TypeStorageRecord))
	}
	if !back.HasProfile() {
		t.Fatal("expected profile to survive the round trip")
	}
	if got := back.Records[TypeSupplier][1].StringField("name"); got != "Beta" {
		t.Fatalf("expected supplier order preserved, got %q", got)
	}
}

func TestDatasetMarshalProfileAsSingleObject(t *testing.T) {
	d := NewLocalDataset()
	d.Records[TypeEstablishmentProfile] = []RawRecord{{"name": "Bar Paco"}}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var buckets map[string]json.RawMessage
	if err := json.Unmarshal(raw, &buckets); err != nil {
		t.Fatalf("unmarshal buckets: %v", err)
	}
	payload, ok := buckets["establishmentProfile"]
	if !ok {
		t.Fatal("expected establishmentProfile bucket")
	}
	var single map[string]any
	if err := json.Unmarshal(payload, &single); err != nil {
		t.Fatalf("profile bucket is not a single object: %v", err)
	}
}

func TestDatasetUnmarshalIgnoresUnknownKeys(t *testing.T) {
	raw := []byte(`{
		"suppliers": [{"id":"s1","name":"Acme"}],
		"appSettings": {"theme":"dark"},
		"schemaVersion": 3
	}`)
	var d LocalDataset
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Count(TypeSupplier) != 1 {
		t.Fatalf("expected 1 supplier, got %d", d.Count(TypeSupplier))
	}
	if len(d.Records) != 1 {
		t.Fatalf("expected unknown keys ignored, got %d buckets", len(d.Records))
	}
}

func TestDecodeBucketAcceptsSingleObjectProfile(t *testing.T) {
	records, err := DecodeBucket(TypeEstablishmentProfile, []byte(`{"name":"Bar Paco"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].StringField("name") != "Bar Paco" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestDecodeBucketEmptyObjectIsEmpty(t *testing.T) {
	records, err := DecodeBucket(TypeEstablishmentProfile, []byte(`{}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestDecodeBucketRejectsGarbage(t *testing.T) {
	if _, err := DecodeBucket(TypeSupplier, []byte(`"not json objects"`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestBucketKeyRoundTrip(t *testing.T) {
	for _, rt := range TransferOrder() {
		key := BucketKey(rt)
		if key == "" {
			t.Fatalf("type %s has no bucket key", rt)
		}
		back, ok := TypeForBucketKey(key)
		if !ok || back != rt {
			t.Fatalf("key %s resolved to %s, want %s", key, back, rt)
		}
	}
}
