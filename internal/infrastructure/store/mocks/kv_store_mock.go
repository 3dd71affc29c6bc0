package mocks

import (
	"bytes"
	"context"
	"sync"
)

// MockKVStore is a mock implementation of store.KVStore for testing
type MockKVStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// For tracking calls in tests
	GetCalls   []string
	SetCalls   []SetCall
	CloseCalls int
	GetErr     error
	SetErr     error
	CloseErr   error
}

// SetCall records parameters passed to Set
type SetCall struct {
	Key   string
	Value []byte
}

// NewMockKVStore creates a new MockKVStore
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{
		data:     make(map[string][]byte),
		GetCalls: make([]string, 0),
		SetCalls: make([]SetCall, 0),
	}
}

// Seed stores a value without recording a call
func (m *MockKVStore) Seed(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = bytes.Clone(value)
}

// Value returns what is currently stored under key
func (m *MockKVStore) Value(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return bytes.Clone(v), ok
}

func (m *MockKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, key)
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (m *MockKVStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: bytes.Clone(value)})
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = bytes.Clone(value)
	return nil
}

func (m *MockKVStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return m.CloseErr
}

// SetCallCount returns the number of Set calls
func (m *MockKVStore) SetCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SetCalls)
}

// Reset clears recorded calls but keeps stored data
func (m *MockKVStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls = make([]string, 0)
	m.SetCalls = make([]SetCall, 0)
	m.CloseCalls = 0
}

// MockBatchKVStore adds store.BatchSetter to MockKVStore
type MockBatchKVStore struct {
	*MockKVStore

	SetManyCalls []map[string][]byte
	SetManyErr   error
}

func NewMockBatchKVStore() *MockBatchKVStore {
	return &MockBatchKVStore{MockKVStore: NewMockKVStore()}
}

func (m *MockBatchKVStore) SetMany(ctx context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := make(map[string][]byte, len(values))
	for k, v := range values {
		call[k] = bytes.Clone(v)
	}
	m.SetManyCalls = append(m.SetManyCalls, call)
	if m.SetManyErr != nil {
		return m.SetManyErr
	}
	for k, v := range call {
		m.data[k] = v
	}
	return nil
}
