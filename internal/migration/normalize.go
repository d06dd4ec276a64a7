package migration

import (
	"fmt"
	"time"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// typesWithActiveFlag lists record types whose missing "active" flag defaults
// to true: a legacy record that never stored the flag is still in use.
var typesWithActiveFlag = map[domain.RecordType]bool{
	domain.TypeSupplier:    true,
	domain.TypeProductType: true,
	domain.TypeStorageUnit: true,
}

// Normalizer produces the canonical dataset transferred to the remote
// service. Deterministic: the same input and clock always yield the same
// output.
type Normalizer struct {
	nowFn func() time.Time
}

// NewNormalizer constructs a normalizer using the given clock. A nil clock
// defaults to UTC wall time.
func NewNormalizer(nowFn func() time.Time) *Normalizer {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Normalizer{nowFn: nowFn}
}

// Prepare filters out records that fail validation, fills defaults, and
// coerces numeric-looking string fields. Every surviving record carries a
// stable identifier: missing ids are derived from the record's position
// within its bucket, which is stable because the store holds ordered
// sequences that are never reordered locally.
func (n *Normalizer) Prepare(dataset domain.LocalDataset) domain.CleanDataset {
	now := n.nowFn().UTC().Format(time.RFC3339)
	clean := domain.CleanDataset{Records: make(map[domain.RecordType][]domain.RawRecord)}
	for _, t := range domain.TransferOrder() {
		records := dataset.Records[t]
		if len(records) == 0 {
			continue
		}
		kept := make([]domain.RawRecord, 0, len(records))
		for i, record := range records {
			if len(validateRecord(t, record)) > 0 {
				continue
			}
			kept = append(kept, normalizeRecord(t, record, i, now))
		}
		if len(kept) > 0 {
			clean.Records[t] = kept
		}
	}
	return clean
}

func normalizeRecord(t domain.RecordType, record domain.RawRecord, index int, now string) domain.RawRecord {
	out := record.Clone()
	if out.ID() == "" {
		out["id"] = fmt.Sprintf("%s-%04d", t, index+1)
	}
	if !out.HasField("createdAt") {
		out["createdAt"] = now
	}
	if typesWithActiveFlag[t] && !out.HasField("active") {
		out["active"] = true
	}
	for _, field := range numericFields[t] {
		if !out.HasField(field) {
			continue
		}
		// validateRecord already rejected unparseable values
		if f, ok := out.FloatField(field); ok {
			out[field] = f
		}
	}
	return out
}
