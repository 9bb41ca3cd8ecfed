package storage

import (
	"sync"
	"time"
)

// MemoryProvider implements the StorageProvider interface using in-memory storage
type MemoryProvider struct {
	flowStore *MemoryFlowStore
}

// NewMemoryProvider creates a new in-memory storage provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		flowStore: NewMemoryFlowStore(),
	}
}

// Initialize sets up the storage backend
func (p *MemoryProvider) Initialize() error {
	// Nothing to initialize for in-memory storage
	return nil
}

// Close cleans up resources
func (p *MemoryProvider) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// GetFlowStore returns a store for flow records
func (p *MemoryProvider) GetFlowStore() FlowStore {
	return p.flowStore
}

// MemoryFlowStore implements the FlowStore interface using in-memory storage
type MemoryFlowStore struct {
	flows map[string]FlowRecord
	mu    sync.RWMutex
}

// NewMemoryFlowStore creates a new in-memory flow store
func NewMemoryFlowStore() *MemoryFlowStore {
	return &MemoryFlowStore{
		flows: make(map[string]FlowRecord),
	}
}

// Get retrieves a flow record by name
func (s *MemoryFlowStore) Get(name string) (FlowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.flows[name]
	if !ok {
		return FlowRecord{}, ErrFlowNotFound
	}
	return record, nil
}

// List returns all flow records
func (s *MemoryFlowStore) List() ([]FlowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]FlowRecord, 0, len(s.flows))
	for _, record := range s.flows {
		records = append(records, record)
	}
	return records, nil
}

// Create persists a new flow record
func (s *MemoryFlowStore) Create(record FlowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flows[record.Name]; ok {
		return ErrFlowExists
	}

	now := time.Now().Unix()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.flows[record.Name] = record
	return nil
}

// Update replaces the serialized definition of an existing flow
func (s *MemoryFlowStore) Update(name string, definition string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Definition = definition
	})
}

// Rename changes the unique name of a flow
func (s *MemoryFlowStore) Rename(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.flows[oldName]
	if !ok {
		return ErrFlowNotFound
	}
	if _, ok := s.flows[newName]; ok {
		return ErrFlowExists
	}

	delete(s.flows, oldName)
	record.Name = newName
	record.UpdatedAt = time.Now().Unix()
	s.flows[newName] = record
	return nil
}

// Enable marks a flow as runnable
func (s *MemoryFlowStore) Enable(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Enabled = true
	})
}

// Disable excludes a flow from the runnable set
func (s *MemoryFlowStore) Disable(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Enabled = false
	})
}

// Delete soft-deletes a flow; the record is retained
func (s *MemoryFlowStore) Delete(name string) error {
	return s.modify(name, func(record *FlowRecord) {
		record.Deleted = true
	})
}

func (s *MemoryFlowStore) modify(name string, apply func(*FlowRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.flows[name]
	if !ok {
		return ErrFlowNotFound
	}
	apply(&record)
	record.UpdatedAt = time.Now().Unix()
	s.flows[name] = record
	return nil
}
