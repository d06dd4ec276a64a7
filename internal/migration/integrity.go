package migration

import (
	"fmt"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// IntegrityReport is the outcome of count reconciliation between the
// pre-migration baseline and the per-type migrated counts.
type IntegrityReport struct {
	OK         bool
	Mismatches []string
}

// CheckIntegrity compares counts per type. A type present in the baseline but
// absent or lower in the migrated counts is a mismatch; a surplus is also
// flagged, since it indicates double-processing.
func CheckIntegrity(before domain.MigrationStats, after map[domain.RecordType]int) IntegrityReport {
	var mismatches []string
	for _, t := range domain.TransferOrder() {
		expected := before.Counts[t]
		got := after[t]
		switch {
		case got < expected:
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %d, migrated %d", t, expected, got))
		case got > expected:
			mismatches = append(mismatches, fmt.Sprintf("%s: migrated %d exceeds detected %d", t, got, expected))
		}
	}
	return IntegrityReport{OK: len(mismatches) == 0, Mismatches: mismatches}
}
