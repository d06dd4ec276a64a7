package migration

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func putBucket(t *testing.T, store localstore.Store, rt domain.RecordType, records ...domain.RawRecord) {
	t.Helper()
	payload, err := domain.EncodeBucket(rt, records)
	if err != nil {
		t.Fatalf("encode bucket %s: %v", rt, err)
	}
	if err := store.Put(domain.BucketKey(rt), payload); err != nil {
		t.Fatalf("put bucket %s: %v", rt, err)
	}
}

// seedStore loads a small but representative legacy dataset.
func seedStore(t *testing.T, store localstore.Store) {
	t.Helper()
	putBucket(t, store, domain.TypeSupplier,
		domain.RawRecord{"id": "s1", "name": "Acme Foods"},
		domain.RawRecord{"id": "s2", "name": "Beta Fresh"},
	)
	putBucket(t, store, domain.TypeProductType,
		domain.RawRecord{"id": "p1", "name": "Fish"},
	)
	putBucket(t, store, domain.TypeStorageUnit,
		domain.RawRecord{"id": "u1", "name": "Freezer 1"},
	)
	putBucket(t, store, domain.TypeDeliveryRecord,
		domain.RawRecord{"id": "d1", "supplierId": "s1", "productTypeId": "p1", "quantity": "12.5"},
	)
	putBucket(t, store, domain.TypeStorageRecord,
		domain.RawRecord{"id": "r1", "storageUnitId": "u1", "temperature": float64(-18)},
	)
	putBucket(t, store, domain.TypeEstablishmentProfile,
		domain.RawRecord{"name": "Bar Paco"},
	)
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
