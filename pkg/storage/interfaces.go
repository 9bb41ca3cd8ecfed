// Package storage provides persistence for flow records.
package storage

import (
	"errors"
)

// Errors returned by flow stores
var (
	ErrFlowNotFound = errors.New("flow not found")
	ErrFlowExists   = errors.New("flow with this name already exists")
)

// FlowRecord is the persisted form of a flow
type FlowRecord struct {
	// Name is the unique key of the flow
	Name string `json:"flow_name"`

	// Definition is the serialized step sequence
	Definition string `json:"definition"`

	// Enabled excludes the flow from the runnable set when false
	Enabled bool `json:"enabled"`

	// Deleted is the soft-delete marker; the record is retained
	Deleted bool `json:"deleted"`

	// CreatedAt is when the record was created (unix seconds)
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is when the record was last modified (unix seconds)
	UpdatedAt int64 `json:"updated_at"`
}

// Runnable reports whether the flow may be executed
func (r FlowRecord) Runnable() bool {
	return r.Enabled && !r.Deleted
}

// FlowStore manages flow record persistence. Every operation is synchronous
// and looks records up by their unique name. Soft-deleted records stay
// visible to Get and List; callers decide what a deleted record means.
type FlowStore interface {
	// Get retrieves a flow record by name
	Get(name string) (FlowRecord, error)

	// List returns all flow records, including disabled and soft-deleted ones
	List() ([]FlowRecord, error)

	// Create persists a new flow record
	Create(record FlowRecord) error

	// Update replaces the serialized definition of an existing flow
	Update(name string, definition string) error

	// Rename changes the unique name of a flow
	Rename(oldName, newName string) error

	// Enable marks a flow as runnable
	Enable(name string) error

	// Disable excludes a flow from the runnable set
	Disable(name string) error

	// Delete soft-deletes a flow; the record is retained
	Delete(name string) error
}

// StorageProvider defines the interface for persistence backends
type StorageProvider interface {
	// Initialize sets up the storage backend
	Initialize() error

	// Close cleans up resources
	Close() error

	// GetFlowStore returns a store for flow records
	GetFlowStore() FlowStore
}
