package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
	"github.com/memoirist/memoir-core/internal/domain/services"
	"github.com/memoirist/memoir-core/internal/infrastructure/parsers"
)

// EntityHandler handles entity management operations.
type EntityHandler struct {
	store  ports.EntityStore
	locks  *services.KeyedLocks
	syncer *services.ProfileSyncer
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(store ports.EntityStore, locks *services.KeyedLocks, syncer *services.ProfileSyncer) *EntityHandler {
	return &EntityHandler{
		store:  store,
		locks:  locks,
		syncer: syncer,
	}
}

// List returns every entity known for a user.
func (h *EntityHandler) List(ctx context.Context, userID string) ([]*entities.PersonEntity, error) {
	return h.store.GetEntities(ctx, userID)
}

// Search finds entities whose names or aliases contain the query.
func (h *EntityHandler) Search(ctx context.Context, userID, query string, limit int) ([]*entities.PersonEntity, error) {
	return h.store.SearchEntities(ctx, userID, query, limit)
}

// Get returns an entity by id, or nil if it doesn't exist.
func (h *EntityHandler) Get(ctx context.Context, id string) (*entities.PersonEntity, error) {
	return h.store.GetEntity(ctx, id)
}

// Delete removes an entity and its profile vector.
func (h *EntityHandler) Delete(ctx context.Context, id string) error {
	if err := h.store.DeleteEntity(ctx, id); err != nil {
		return err
	}
	h.syncer.RemoveEntities(ctx, []string{id})
	_ = h.store.LogAction(ctx, "entity.delete", id, nil)
	return nil
}

// Relate records a relationship on an entity. The reference is a name; it is
// not required to resolve to a known entity, and it is never rewritten if
// that entity is later renamed or merged.
func (h *EntityHandler) Relate(ctx context.Context, entityID string, kind entities.RelationKind, ref string) (*entities.PersonEntity, error) {
	if !entities.ValidRelationKind(kind) {
		return nil, fmt.Errorf("unknown relationship kind: %s", kind)
	}

	unlock := h.locks.Lock(entityID)
	defer unlock()

	entity, err := h.store.GetEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("loading entity: %w", err)
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrEntityNotFound, entityID)
	}

	if !entity.AddRelationship(kind, ref) {
		return entity, nil
	}
	entity.UpdatedAt = time.Now()

	if err := h.store.UpdateEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("updating entity: %w", err)
	}

	_ = h.store.LogAction(ctx, "entity.relate", entity.ID, map[string]any{
		"kind": string(kind),
		"ref":  ref,
	})
	return entity, nil
}

// Reindex rebuilds the user's profile index from the entity store, for
// recovery after index loss. Returns false when profile syncing is disabled.
func (h *EntityHandler) Reindex(ctx context.Context, userID string) (bool, error) {
	if !h.syncer.Enabled() {
		return false, nil
	}
	if err := h.syncer.Rebuild(ctx, h.store, userID); err != nil {
		return true, fmt.Errorf("rebuilding profile index: %w", err)
	}
	return true, nil
}

// History returns the audit trail for one entity, newest first.
func (h *EntityHandler) History(ctx context.Context, entityID string) ([]entities.AuditEntry, error) {
	return h.store.FindAuditLog(ctx, entityID)
}

// HistoryByAction returns recent audit entries of one action type.
func (h *EntityHandler) HistoryByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	return h.store.FindAuditLogByAction(ctx, action, limit)
}

// Export writes every entity of a user as a JSON array.
func (h *EntityHandler) Export(ctx context.Context, userID string, w io.Writer) (int, error) {
	known, err := h.store.GetEntities(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("loading entities: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(known); err != nil {
		return 0, fmt.Errorf("encoding entities: %w", err)
	}
	return len(known), nil
}

// ImportResult contains the result of an import.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []string
}

// Import reads person records in the given format and creates entities for
// them. Records whose canonical name already belongs to a known entity are
// skipped rather than duplicated; invalid records are reported and the rest
// of the batch continues.
func (h *EntityHandler) Import(ctx context.Context, userID string, r io.Reader, format string) (*ImportResult, error) {
	parser := parsers.ForFormat(format)
	if parser == nil {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	records, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing import: %w", err)
	}

	known, err := h.store.GetEntities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}
	existing := make(map[string]bool, len(known))
	for _, entity := range known {
		for _, name := range entity.AllNames() {
			existing[entities.NormalizeName(name)] = true
		}
	}

	result := &ImportResult{}
	for _, record := range records {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		entity, err := entityFromRecord(userID, record)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", record.LineNum, err))
			continue
		}

		if existing[entities.NormalizeName(entity.CanonicalName)] {
			result.Skipped++
			continue
		}

		if err := h.store.CreateEntity(ctx, entity); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: %v", record.LineNum, err))
			continue
		}
		existing[entities.NormalizeName(entity.CanonicalName)] = true
		h.syncer.SyncEntity(ctx, entity)
		_ = h.store.LogAction(ctx, "entity.import", entity.ID, map[string]any{
			"canonical_name": entity.CanonicalName,
		})
		result.Imported++
	}
	return result, nil
}

// entityFromRecord validates and converts a parsed record.
func entityFromRecord(userID string, record parsers.RawPerson) (*entities.PersonEntity, error) {
	if record.CanonicalName == "" {
		return nil, fmt.Errorf("canonical name is required")
	}

	confidence := 1.0
	if record.Confidence != nil {
		confidence = *record.Confidence
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range [0, 1]", confidence)
	}

	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now()
	entity := &entities.PersonEntity{
		ID:              id,
		UserID:          userID,
		CanonicalName:   record.CanonicalName,
		DisplayName:     record.DisplayName,
		Gender:          entities.Gender(record.Gender),
		BirthDate:       record.BirthDate,
		ConfidenceScore: confidence,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, alias := range record.Aliases {
		entity.AddAlias(alias)
	}
	for kind, refs := range record.Relationships {
		relKind := entities.RelationKind(kind)
		if !entities.ValidRelationKind(relKind) {
			return nil, fmt.Errorf("unknown relationship kind: %s", kind)
		}
		for _, ref := range refs {
			entity.AddRelationship(relKind, ref)
		}
	}
	return entity, nil
}
