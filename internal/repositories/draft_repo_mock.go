package repositories

import "sync"

// MockDraftRepository is an in-memory implementation of DraftRepository,
// used in tests and when running without a database.
type MockDraftRepository struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewMockDraftRepository creates a new instance of MockDraftRepository.
func NewMockDraftRepository() *MockDraftRepository {
	return &MockDraftRepository{
		values: make(map[string]string),
	}
}

// Get returns the stored value for a key, or "" when absent.
func (r *MockDraftRepository) Get(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[key], nil
}

// Set stores or overwrites the value for a key.
func (r *MockDraftRepository) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

// Remove deletes the value for a key.
func (r *MockDraftRepository) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}

// Has reports whether a key is currently stored. Test helper.
func (r *MockDraftRepository) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.values[key]
	return ok
}
