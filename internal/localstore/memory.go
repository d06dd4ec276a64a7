package localstore

import (
	"sort"
	"sync"
)

// Memory is an in-process Store used by tests and ephemeral runs. Payloads
// are copied on the way in and out so callers cannot alias internal state.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func clonePayload(p []byte) []byte {
	if p == nil {
		return nil
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	return cp
}

// Get returns the payload stored under key, or ErrNotFound.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePayload(payload), nil
}

// Put stores payload under key, overwriting any previous value.
func (m *Memory) Put(key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = clonePayload(payload)
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys lists every key holding a value, sorted for determinism.
func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
