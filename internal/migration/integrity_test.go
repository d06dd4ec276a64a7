package migration

import (
	"strings"
	"testing"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

func TestCheckIntegrityMatch(t *testing.T) {
	before := domain.MigrationStats{Counts: map[domain.RecordType]int{
		domain.TypeSupplier:       2,
		domain.TypeDeliveryRecord: 3,
	}}
	after := map[domain.RecordType]int{
		domain.TypeSupplier:       2,
		domain.TypeDeliveryRecord: 3,
	}
	report := CheckIntegrity(before, after)
	if !report.OK || len(report.Mismatches) != 0 {
		t.Fatalf("expected clean report, got %+v", report)
	}
}

func TestCheckIntegrityDeficit(t *testing.T) {
	before := domain.MigrationStats{Counts: map[domain.RecordType]int{
		domain.TypeSupplier: 5,
	}}
	after := map[domain.RecordType]int{domain.TypeSupplier: 4}
	report := CheckIntegrity(before, after)
	if report.OK {
		t.Fatal("deficit must fail the check")
	}
	if len(report.Mismatches) != 1 || !strings.Contains(report.Mismatches[0], "supplier") {
		t.Fatalf("unexpected mismatches %v", report.Mismatches)
	}
}

func TestCheckIntegritySurplus(t *testing.T) {
	before := domain.MigrationStats{Counts: map[domain.RecordType]int{
		domain.TypeSupplier: 1,
	}}
	after := map[domain.RecordType]int{
		domain.TypeSupplier:    1,
		domain.TypeProductType: 2,
	}
	report := CheckIntegrity(before, after)
	if report.OK {
		t.Fatal("surplus must fail the check")
	}
	if len(report.Mismatches) != 1 || !strings.Contains(report.Mismatches[0], "product_type") {
		t.Fatalf("unexpected mismatches %v", report.Mismatches)
	}
}

func TestCheckIntegrityZeroExpectedZeroMigrated(t *testing.T) {
	report := CheckIntegrity(domain.MigrationStats{Counts: map[domain.RecordType]int{}}, map[domain.RecordType]int{})
	if !report.OK {
		t.Fatalf("empty comparison must pass, got %+v", report)
	}
}
