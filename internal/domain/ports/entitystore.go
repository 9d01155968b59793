// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"time"

	"github.com/memoirist/memoir-core/internal/domain/entities"
)

// EntityStore is the sole source of truth for person entities. The core
// never caches entities beyond the lifetime of a single operation.
type EntityStore interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error

	// GetEntities returns every entity known for a user.
	GetEntities(ctx context.Context, userID string) ([]*entities.PersonEntity, error)

	// GetEntity returns an entity by id, or nil if it doesn't exist.
	GetEntity(ctx context.Context, id string) (*entities.PersonEntity, error)

	// CreateEntity persists a new entity.
	CreateEntity(ctx context.Context, entity *entities.PersonEntity) error

	// UpdateEntity persists changes to an existing entity.
	// Returns ErrEntityNotFound if the id no longer resolves.
	UpdateEntity(ctx context.Context, entity *entities.PersonEntity) error

	// DeleteEntity removes an entity by id.
	DeleteEntity(ctx context.Context, id string) error

	// ApplyMerge writes the consolidated survivor and removes the absorbed
	// entities as a single all-or-nothing operation. Implementations return
	// ErrMergeConflict if any participant changed since the merge was
	// planned: the absorbed snapshots carry their expected state, and
	// survivorSeen is the survivor's updated_at at planning time.
	ApplyMerge(ctx context.Context, survivor *entities.PersonEntity, survivorSeen time.Time, absorbed []*entities.PersonEntity) error

	// SearchEntities searches entities by name or alias pattern.
	SearchEntities(ctx context.Context, userID, query string, limit int) ([]*entities.PersonEntity, error)

	// CountEntities returns the number of entities for a user.
	CountEntities(ctx context.Context, userID string) (int, error)

	// LogAction logs a store mutation to the audit log.
	LogAction(ctx context.Context, action string, entityID string, details map[string]any) error

	// FindAuditLog finds audit entries for a specific entity.
	FindAuditLog(ctx context.Context, entityID string) ([]entities.AuditEntry, error)

	// FindAuditLogByAction finds audit entries by action type.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}
