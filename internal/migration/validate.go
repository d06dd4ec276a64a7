package migration

import (
	"fmt"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// requiredFields lists, per record type, the fields that must be present and
// non-empty for a record to survive normalization. Reference fields only need
// to be syntactically well-formed strings; referential existence is not
// checked locally.
var requiredFields = map[domain.RecordType][]string{
	domain.TypeSupplier:             {"name"},
	domain.TypeProductType:          {"name"},
	domain.TypeStorageUnit:          {"name"},
	domain.TypeDeliveryRecord:       {"supplierId", "productTypeId"},
	domain.TypeStorageRecord:        {"storageUnitId", "temperature"},
	domain.TypeTechnicalSheet:       {"productName"},
	domain.TypeEstablishmentProfile: {"name"},
}

// numericFields lists fields that must hold (or coerce to) a number.
var numericFields = map[domain.RecordType][]string{
	domain.TypeStorageRecord:  {"temperature"},
	domain.TypeDeliveryRecord: {"quantity"},
}

// ValidationReport aggregates every violation found in a dataset.
type ValidationReport struct {
	Valid  bool
	Errors []string
}

// Validate checks structural completeness of each record against the
// required-field rules. It returns all violations, each prefixed with type
// and index, so the full defect list is visible in one pass. Secondary
// catch-all types carry no rules and always pass.
func Validate(dataset domain.LocalDataset) ValidationReport {
	report := ValidationReport{Valid: true}
	for _, t := range domain.TransferOrder() {
		for i, record := range dataset.Records[t] {
			for _, issue := range validateRecord(t, record) {
				report.Errors = append(report.Errors, fmt.Sprintf("%s[%d]: %s", t, i, issue))
			}
		}
	}
	report.Valid = len(report.Errors) == 0
	return report
}

func validateRecord(t domain.RecordType, record domain.RawRecord) []string {
	var issues []string
	for _, field := range requiredFields[t] {
		if !record.HasField(field) {
			issues = append(issues, fmt.Sprintf("missing required field %q", field))
		}
	}
	for _, field := range numericFields[t] {
		if !record.HasField(field) {
			continue // absence is covered by requiredFields where it matters
		}
		if _, ok := record.FloatField(field); !ok {
			issues = append(issues, fmt.Sprintf("field %q is not numeric", field))
		}
	}
	return issues
}
