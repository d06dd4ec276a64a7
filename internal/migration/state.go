// Package migration implements the local-to-remote data migration pipeline:
// detection, validation, normalization, backup, orchestrated transfer,
// integrity reconciliation, and rollback.
package migration

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/pkg/domain"
)

// LoadState reads the persisted completion state. Devices written by older
// client builds carry a bare boolean plus a date key instead of the state
// object; both layouts are accepted.
func LoadState(store localstore.Store) (domain.MigrationState, error) {
	payload, err := store.Get(localstore.KeyMigrationState)
	if err == nil {
		var state domain.MigrationState
		if jsonErr := json.Unmarshal(payload, &state); jsonErr != nil {
			return domain.MigrationState{}, fmt.Errorf("decode migration state: %w", jsonErr)
		}
		return state, nil
	}
	if !errors.Is(err, localstore.ErrNotFound) {
		return domain.MigrationState{}, err
	}

	legacy, err := store.Get(localstore.KeyLegacyCompleted)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return domain.MigrationState{}, nil
		}
		return domain.MigrationState{}, err
	}
	if strings.TrimSpace(string(legacy)) != "true" {
		return domain.MigrationState{}, nil
	}
	state := domain.MigrationState{Completed: true}
	if raw, err := store.Get(localstore.KeyLegacyDate); err == nil {
		if ts, parseErr := time.Parse(time.RFC3339, strings.Trim(string(raw), `"`)); parseErr == nil {
			state.CompletedAt = ts
		}
	}
	return state, nil
}

// SaveState persists the completion state. Called exactly once per successful
// migration, at the end of the complete transition.
func SaveState(store localstore.Store, state domain.MigrationState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode migration state: %w", err)
	}
	return store.Put(localstore.KeyMigrationState, payload)
}

// ClearState removes the completion marker, including the legacy keys.
func ClearState(store localstore.Store) error {
	for _, key := range []string{
		localstore.KeyMigrationState,
		localstore.KeyLegacyCompleted,
		localstore.KeyLegacyDate,
	} {
		if err := store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
