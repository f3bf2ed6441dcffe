package environment

import (
	"fmt"
	"sync"

	"habitat/internal/api"
)

// Store is the narrow registry interface the orchestration logic depends on.
// The default implementation is in-memory only; records do not survive a
// process restart. Substituting a durable backing requires no change to the
// lifecycle manager.
type Store interface {
	// Get returns the record for id.
	Get(id string) (*Record, bool)

	// Put registers a new record. Registering an id twice is an error; ids
	// are never reused.
	Put(record *Record) error

	// Delete removes the record for id. Deleting an unknown id returns
	// api.NotFoundError.
	Delete(id string) error

	// List returns all records in unspecified order.
	List() []*Record
}

// memoryStore is a concurrent map keyed by environment id.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	seen    map[string]bool
}

// NewMemoryStore creates the default in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[string]*Record),
		seen:    make(map[string]bool),
	}
}

func (s *memoryStore) Get(id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[id]
	return record, exists
}

func (s *memoryStore) Put(record *Record) error {
	if record == nil {
		return fmt.Errorf("cannot register nil record")
	}
	if record.ID() == "" {
		return fmt.Errorf("record has empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Ids stay burned for the process lifetime, even after deletion.
	if s.seen[record.ID()] {
		return fmt.Errorf("environment id %s already used", record.ID())
	}

	s.records[record.ID()] = record
	s.seen[record.ID()] = true
	return nil
}

func (s *memoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return api.NewEnvironmentNotFoundError(id)
	}
	delete(s.records, id)
	return nil
}

func (s *memoryStore) List() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	return records
}
