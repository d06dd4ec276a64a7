// Package domain defines the record types, dataset shapes, and migration
// value objects shared by the local-to-remote migration pipeline.
package domain

import (
	"strconv"
	"strings"
)

// RecordType identifies a migratable record collection held in the on-device store.
type RecordType string

// Primary record types. Suppliers, product types, and storage units are
// referenced by the remaining types and must be transferred first.
const (
	// TypeSupplier identifies a supplier record.
	TypeSupplier RecordType = "supplier"
	// TypeProductType identifies a product type record.
	TypeProductType RecordType = "product_type"
	// TypeStorageUnit identifies a storage unit (chamber/freezer) record.
	TypeStorageUnit RecordType = "storage_unit"
	// TypeDeliveryRecord identifies an incoming delivery record.
	TypeDeliveryRecord RecordType = "delivery_record"
	// TypeStorageRecord identifies a temperature reading for a storage unit.
	TypeStorageRecord RecordType = "storage_record"
	// TypeTechnicalSheet identifies a product technical sheet.
	TypeTechnicalSheet RecordType = "technical_sheet"
	// TypeEstablishmentProfile identifies the single establishment profile record.
	TypeEstablishmentProfile RecordType = "establishment_profile"
)

// Secondary record types carried in the catch-all bucket. They have no
// required-field rules and are transferred after the primary referencing types.
const (
	TypeCleaningRecord   RecordType = "cleaning_record"
	TypeIncidentRecord   RecordType = "incident_record"
	TypeOutgoingRecord   RecordType = "outgoing_record"
	TypeElaboratedRecord RecordType = "elaborated_record"
)

func (t RecordType) String() string { return string(t) }

// PrimaryTypes returns the primary record types in transfer order: referenced
// types first, referencing types after.
func PrimaryTypes() []RecordType {
	return []RecordType{
		TypeSupplier,
		TypeProductType,
		TypeStorageUnit,
		TypeDeliveryRecord,
		TypeStorageRecord,
		TypeTechnicalSheet,
	}
}

// SecondaryTypes returns the catch-all record types in transfer order.
func SecondaryTypes() []RecordType {
	return []RecordType{
		TypeCleaningRecord,
		TypeIncidentRecord,
		TypeOutgoingRecord,
		TypeElaboratedRecord,
	}
}

// TransferOrder returns every record type in referential dependency order.
// The establishment profile is always last.
func TransferOrder() []RecordType {
	order := append(PrimaryTypes(), SecondaryTypes()...)
	return append(order, TypeEstablishmentProfile)
}

// RawRecord is a loosely typed record as read from the on-device store.
// Legacy datasets predate any schema enforcement, so every field access must
// tolerate missing keys and mixed value types.
type RawRecord map[string]any

// Clone returns a copy with its own top-level map. Nested values are shared;
// the pipeline never mutates nested structures in place.
func (r RawRecord) Clone() RawRecord {
	if r == nil {
		return nil
	}
	cp := make(RawRecord, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// StringField returns the named field as a trimmed string. Numeric values are
// formatted; anything else yields the empty string.
func (r RawRecord) StringField(name string) string {
	switch v := r[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// FloatField returns the named field as a float64, coercing numeric-looking
// strings. The second result reports whether a usable value was present.
func (r RawRecord) FloatField(name string) (float64, bool) {
	switch v := r[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// HasField reports whether the named field is present and non-empty.
func (r RawRecord) HasField(name string) bool {
	v, ok := r[name]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// ID returns the record's stable identifier, or the empty string when unset.
func (r RawRecord) ID() string { return r.StringField("id") }
