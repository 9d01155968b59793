// Package mocks provides hand-written mock implementations of ports.
package mocks

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
)

// EntityStore is an in-memory mock implementation of ports.EntityStore.
type EntityStore struct {
	Entities map[string]*entities.PersonEntity
	Audit    []entities.AuditEntry
	Err      error

	// UpdateErr, when set, fails UpdateEntity only.
	UpdateErr error
	// MergeErr, when set, fails ApplyMerge only.
	MergeErr error
}

// NewEntityStore creates a new mock EntityStore.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		Entities: make(map[string]*entities.PersonEntity),
	}
}

// Add seeds an entity, copying it so tests keep their own snapshot.
func (m *EntityStore) Add(entity *entities.PersonEntity) {
	copied := cloneEntity(entity)
	m.Entities[copied.ID] = copied
}

// EnsureSchema creates the storage schema if it doesn't exist.
func (m *EntityStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the underlying connection.
func (m *EntityStore) Close() error {
	return nil
}

// GetEntities returns every entity known for a user.
func (m *EntityStore) GetEntities(_ context.Context, userID string) ([]*entities.PersonEntity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]*entities.PersonEntity, 0, len(m.Entities))
	for _, entity := range m.Entities {
		if entity.UserID == userID {
			result = append(result, cloneEntity(entity))
		}
	}
	// Sort by id for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetEntity returns an entity by id, or nil if it doesn't exist.
func (m *EntityStore) GetEntity(_ context.Context, id string) (*entities.PersonEntity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	entity, ok := m.Entities[id]
	if !ok {
		return nil, nil
	}
	return cloneEntity(entity), nil
}

// CreateEntity persists a new entity.
func (m *EntityStore) CreateEntity(_ context.Context, entity *entities.PersonEntity) error {
	if m.Err != nil {
		return m.Err
	}
	m.Entities[entity.ID] = cloneEntity(entity)
	return nil
}

// UpdateEntity persists changes to an existing entity.
func (m *EntityStore) UpdateEntity(_ context.Context, entity *entities.PersonEntity) error {
	if m.Err != nil {
		return m.Err
	}
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.Entities[entity.ID]; !ok {
		return ports.ErrEntityNotFound
	}
	m.Entities[entity.ID] = cloneEntity(entity)
	return nil
}

// DeleteEntity removes an entity by id.
func (m *EntityStore) DeleteEntity(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Entities, id)
	return nil
}

// ApplyMerge writes the survivor and removes the absorbed entities.
func (m *EntityStore) ApplyMerge(_ context.Context, survivor *entities.PersonEntity, survivorSeen time.Time, absorbed []*entities.PersonEntity) error {
	if m.Err != nil {
		return m.Err
	}
	if m.MergeErr != nil {
		return m.MergeErr
	}
	for _, entity := range absorbed {
		stored, ok := m.Entities[entity.ID]
		if !ok {
			return ports.ErrMergeConflict
		}
		if !stored.UpdatedAt.Equal(entity.UpdatedAt) {
			return ports.ErrMergeConflict
		}
	}
	stored, ok := m.Entities[survivor.ID]
	if !ok || !stored.UpdatedAt.Equal(survivorSeen) {
		return ports.ErrMergeConflict
	}
	m.Entities[survivor.ID] = cloneEntity(survivor)
	for _, entity := range absorbed {
		delete(m.Entities, entity.ID)
	}
	return nil
}

// SearchEntities searches entities by name or alias pattern.
func (m *EntityStore) SearchEntities(_ context.Context, userID, query string, limit int) ([]*entities.PersonEntity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	normalized := entities.NormalizeName(query)
	var result []*entities.PersonEntity
	for _, entity := range m.Entities {
		if entity.UserID != userID {
			continue
		}
		for _, name := range entity.AllNames() {
			if normalized == "" || containsFold(name, normalized) {
				result = append(result, cloneEntity(entity))
				break
			}
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CountEntities returns the number of entities for a user.
func (m *EntityStore) CountEntities(_ context.Context, userID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, entity := range m.Entities {
		if entity.UserID == userID {
			count++
		}
	}
	return count, nil
}

// LogAction logs a store mutation to the audit log.
func (m *EntityStore) LogAction(_ context.Context, action string, entityID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		EntityID:  entityID,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

// FindAuditLog finds audit entries for a specific entity.
func (m *EntityStore) FindAuditLog(_ context.Context, entityID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for _, entry := range m.Audit {
		if entry.EntityID == entityID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// FindAuditLogByAction finds audit entries by action type.
func (m *EntityStore) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for _, entry := range m.Audit {
		if entry.Action == action {
			result = append(result, entry)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

// cloneEntity deep-copies an entity so mock state can't leak to callers.
func cloneEntity(entity *entities.PersonEntity) *entities.PersonEntity {
	copied := *entity
	copied.Aliases = append([]string(nil), entity.Aliases...)
	if entity.Relationships != nil {
		copied.Relationships = make(map[entities.RelationKind][]string, len(entity.Relationships))
		for kind, refs := range entity.Relationships {
			copied.Relationships[kind] = append([]string(nil), refs...)
		}
	}
	return &copied
}

// containsFold reports whether name contains the already-normalized query.
func containsFold(name, normalizedQuery string) bool {
	return strings.Contains(entities.NormalizeName(name), normalizedQuery)
}
