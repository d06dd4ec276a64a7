package domain

import (
	"encoding/json"
	"fmt"
)

// Bucket keys match the legacy on-device storage layout, so exported backups
// stay interchangeable with what the previous client versions wrote.
var bucketKeys = map[RecordType]string{
	TypeSupplier:             "suppliers",
	TypeProductType:          "productTypes",
	TypeStorageUnit:          "storageUnits",
	TypeDeliveryRecord:       "deliveryRecords",
	TypeStorageRecord:        "storageRecords",
	TypeTechnicalSheet:       "technicalSheets",
	TypeEstablishmentProfile: "establishmentProfile",
	TypeCleaningRecord:       "cleaningRecords",
	TypeIncidentRecord:       "incidentRecords",
	TypeOutgoingRecord:       "outgoingRecords",
	TypeElaboratedRecord:     "elaboratedRecords",
}

var typesByBucketKey = func() map[string]RecordType {
	m := make(map[string]RecordType, len(bucketKeys))
	for t, k := range bucketKeys {
		m[k] = t
	}
	return m
}()

// BucketKey returns the on-device storage key for a record type.
func BucketKey(t RecordType) string { return bucketKeys[t] }

// TypeForBucketKey resolves a storage key back to its record type.
func TypeForBucketKey(key string) (RecordType, bool) {
	t, ok := typesByBucketKey[key]
	return t, ok
}

// MarshalJSON encodes the dataset in the legacy bucket layout: one key per
// non-empty record type, the establishment profile as a single object.
func (d LocalDataset) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Records))
	for t, records := range d.Records {
		if len(records) == 0 {
			continue
		}
		key := bucketKeys[t]
		if key == "" {
			return nil, fmt.Errorf("unknown record type %q", t)
		}
		if t == TypeEstablishmentProfile {
			out[key] = records[0]
			continue
		}
		out[key] = records
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the legacy bucket layout. Unrecognized keys are
// ignored; the profile bucket accepts either a single object or an array.
func (d *LocalDataset) UnmarshalJSON(raw []byte) error {
	var buckets map[string]json.RawMessage
	if err := json.Unmarshal(raw, &buckets); err != nil {
		return err
	}
	*d = NewLocalDataset()
	for key, payload := range buckets {
		t, ok := typesByBucketKey[key]
		if !ok {
			continue
		}
		records, err := DecodeBucket(t, payload)
		if err != nil {
			return fmt.Errorf("bucket %s: %w", key, err)
		}
		if len(records) > 0 {
			d.Records[t] = records
		}
	}
	return nil
}

// DecodeBucket parses one serialized record collection. The establishment
// profile is stored as a single object by older clients; everything else is
// an array.
func DecodeBucket(t RecordType, payload []byte) ([]RawRecord, error) {
	var records []RawRecord
	if err := json.Unmarshal(payload, &records); err == nil {
		return records, nil
	}
	var single RawRecord
	if err := json.Unmarshal(payload, &single); err != nil {
		return nil, err
	}
	if len(single) == 0 {
		return nil, nil
	}
	return []RawRecord{single}, nil
}

// EncodeBucket serializes one record collection in its legacy shape.
func EncodeBucket(t RecordType, records []RawRecord) ([]byte, error) {
	if t == TypeEstablishmentProfile && len(records) > 0 {
		return json.Marshal(records[0])
	}
	return json.Marshal(records)
}
