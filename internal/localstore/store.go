// Package localstore abstracts the on-device persistent key-value store that
// holds the user's pre-existing dataset: a flat mapping from string keys to
// serialized record collections, surviving restarts on the same device.
package localstore

import (
	"errors"
	"fmt"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// Reserved keys used by the migration pipeline alongside the record buckets.
const (
	// KeyMigrationState holds the persisted MigrationState value object.
	KeyMigrationState = "migrationState"
	// KeyRestorePoint holds the single-slot serialized restore point.
	KeyRestorePoint = "migrationRestorePoint"

	// Legacy completion keys written by older client builds. Read for
	// backward compatibility and cleared on rollback.
	KeyLegacyCompleted = "migrationCompleted"
	KeyLegacyDate      = "migrationDate"
)

// ErrNotFound is returned by Get when a key holds no value.
var ErrNotFound = errors.New("localstore: key not found")

// Store is a flat key-value store. Values are opaque serialized payloads;
// interpretation belongs to the caller.
type Store interface {
	// Get returns the payload stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Put stores payload under key, overwriting any previous value.
	Put(key string, payload []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys lists every key currently holding a value.
	Keys() ([]string, error)
}

// RecognizedKeys returns every record bucket key in transfer order.
func RecognizedKeys() []string {
	order := domain.TransferOrder()
	keys := make([]string, 0, len(order))
	for _, t := range order {
		keys = append(keys, domain.BucketKey(t))
	}
	return keys
}

// Driver identifies a concrete store implementation.
type Driver string

const (
	// DriverMemory is the in-memory store (tests / ephemeral).
	DriverMemory Driver = "memory"
	// DriverSQLite is the embedded SQLite file store (default).
	DriverSQLite Driver = "sqlite"
)

// Open selects a store backend. An empty driver defaults to sqlite.
func Open(driver Driver, path string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown localstore driver %q", driver)
	}
}
