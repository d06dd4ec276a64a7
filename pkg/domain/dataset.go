package domain

import "time"

// LocalDataset maps each record type to the ordered sequence of raw records
// read from the on-device store. It is read fresh at wizard start and never
// mutated in place; normalization produces a new CleanDataset.
// Its JSON form is the legacy bucket layout implemented in codec.go.
type LocalDataset struct {
	Records map[RecordType][]RawRecord
}

// NewLocalDataset returns an empty dataset with an allocated bucket map.
func NewLocalDataset() LocalDataset {
	return LocalDataset{Records: make(map[RecordType][]RawRecord)}
}

// Clone returns a deep-enough copy: new bucket map, new slices, cloned records.
func (d LocalDataset) Clone() LocalDataset {
	cp := NewLocalDataset()
	for t, records := range d.Records {
		cloned := make([]RawRecord, 0, len(records))
		for _, r := range records {
			cloned = append(cloned, r.Clone())
		}
		cp.Records[t] = cloned
	}
	return cp
}

// Count returns the number of records held for the given type.
func (d LocalDataset) Count(t RecordType) int { return len(d.Records[t]) }

// IsEmpty reports whether no bucket holds any record.
func (d LocalDataset) IsEmpty() bool {
	for _, records := range d.Records {
		if len(records) > 0 {
			return false
		}
	}
	return true
}

// HasProfile reports whether an establishment profile record is present.
func (d LocalDataset) HasProfile() bool { return d.Count(TypeEstablishmentProfile) > 0 }

// CleanDataset has the same shape as LocalDataset, but every record has
// passed validation and normalization: stable identifier present, defaults
// filled, numeric fields coerced.
type CleanDataset struct {
	Records map[RecordType][]RawRecord
}

// Count returns the number of clean records held for the given type.
func (d CleanDataset) Count(t RecordType) int { return len(d.Records[t]) }

// MigrationStats carries the per-type record counts used for the review
// screen and as the integrity baseline. Computed fresh each time the wizard
// opens.
type MigrationStats struct {
	Counts     map[RecordType]int `json:"counts"`
	HasProfile bool               `json:"hasProfile"`
}

// Total returns the number of records across all types.
func (s MigrationStats) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// MigrationResult reports the outcome of a single migration attempt. It is
// never persisted beyond the wizard session; only the completion state
// survives.
type MigrationResult struct {
	Success    bool               `json:"success"`
	Migrated   map[RecordType]int `json:"migrated"`
	Errors     []string           `json:"errors,omitempty"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
}

// TotalMigrated returns the number of records written remotely.
func (r MigrationResult) TotalMigrated() int {
	total := 0
	for _, n := range r.Migrated {
		total += n
	}
	return total
}

// MigrationState is the persisted completion marker. It is written exactly
// once, at the end of a successful, integrity-verified migration, and cleared
// by a rollback.
type MigrationState struct {
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completedAt"`
}

// RestorePoint is the single-slot snapshot used for programmatic rollback.
// At most one exists at a time; creating a new one overwrites the previous.
type RestorePoint struct {
	CreatedAt time.Time    `json:"createdAt"`
	Data      LocalDataset `json:"data"`
}

// BackupArtifact is a timestamped serialized copy of the dataset intended for
// export. Immutable once created and independent of the restore point: a user
// may keep many artifacts.
type BackupArtifact struct {
	ID        string       `json:"id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Data      LocalDataset `json:"data"`
}
