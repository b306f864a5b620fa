package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eugenenazirov/envconform/internal/schemadef"
	"github.com/eugenenazirov/envconform/pkg/conform"
)

// ErrNoSchema is returned when no schema definition has been stored yet.
var ErrNoSchema = errors.New("no schema definition configured")

// Storage provides access to the active schema definition.
type Storage interface {
	GetSchema() (schemadef.Definition, time.Time, error)
	SetSchema(def schemadef.Definition) error
	// Schema returns the built schema for the active definition.
	Schema() (*conform.Schema, error)
}

// MemoryStorage keeps the schema definition in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu        sync.RWMutex
	def       schemadef.Definition
	schema    *conform.Schema
	updatedAt time.Time
	clock     func() time.Time
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// NewMemoryStorage returns an empty storage.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updatedAt = s.clock()
	return s
}

// GetSchema returns a defensive copy of the stored definition and the time it was last set.
func (s *MemoryStorage) GetSchema() (schemadef.Definition, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.def.Clone(), s.updatedAt, nil
}

// SetSchema builds the definition and stores it only if it builds cleanly, so
// the previous definition stays active on error.
func (s *MemoryStorage) SetSchema(def schemadef.Definition) error {
	schema, err := def.Build()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	s.mu.Lock()
	s.def = def.Clone()
	s.schema = schema
	s.updatedAt = s.clock()
	s.mu.Unlock()

	return nil
}

// Schema returns the built schema. Converters are immutable, so the schema is
// shared rather than copied.
func (s *MemoryStorage) Schema() (*conform.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.schema == nil || s.schema.Len() == 0 {
		return nil, ErrNoSchema
	}
	return s.schema, nil
}
