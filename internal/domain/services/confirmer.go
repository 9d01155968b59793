package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
)

// confirmedEntityConfidence is the starting confidence for entities the user
// explicitly confirmed or created.
const confirmedEntityConfidence = 0.95

// ConfirmationOutcome records what happened to one confirmation.
type ConfirmationOutcome struct {
	Confirmation entities.EntityConfirmation `json:"confirmation"`
	EntityID     string                      `json:"entity_id,omitempty"`
	Created      bool                        `json:"created"`
	AliasAdded   bool                        `json:"alias_added"`
	Err          error                       `json:"-"`
	ErrMessage   string                      `json:"error,omitempty"`
}

// ConfirmationBatchResult is the partial-failure result of a batch: one
// failed item never rolls back its already-applied siblings.
type ConfirmationBatchResult struct {
	Outcomes  []ConfirmationOutcome `json:"outcomes"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// Confirmer applies user entity-resolution decisions to the store.
type Confirmer struct {
	store  ports.EntityStore
	locks  *KeyedLocks
	logger *zap.Logger
}

// NewConfirmer creates a Confirmer.
func NewConfirmer(store ports.EntityStore, locks *KeyedLocks, logger *zap.Logger) *Confirmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Confirmer{store: store, locks: locks, logger: logger}
}

// Apply applies each confirmation independently and reports per-item
// outcomes. On context cancellation the outcomes applied so far are
// returned together with the context error.
func (c *Confirmer) Apply(ctx context.Context, userID string, confirmations []entities.EntityConfirmation) (*ConfirmationBatchResult, error) {
	result := &ConfirmationBatchResult{
		Outcomes: make([]ConfirmationOutcome, 0, len(confirmations)),
	}

	for _, confirmation := range confirmations {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		outcome := c.applyOne(ctx, userID, confirmation)
		if outcome.Err != nil {
			outcome.ErrMessage = outcome.Err.Error()
			result.Failed++
			c.logger.Warn("confirmation failed",
				zap.String("mention", confirmation.MentionText),
				zap.String("action", string(confirmation.Action)),
				zap.Error(outcome.Err))
		} else {
			result.Succeeded++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// applyOne applies a single confirmation.
func (c *Confirmer) applyOne(ctx context.Context, userID string, confirmation entities.EntityConfirmation) ConfirmationOutcome {
	outcome := ConfirmationOutcome{Confirmation: confirmation}

	if err := confirmation.Validate(); err != nil {
		outcome.Err = fmt.Errorf("%w: %v", ports.ErrInvalidConfirmation, err)
		return outcome
	}

	switch confirmation.Action {
	case entities.ActionLink:
		outcome.EntityID = confirmation.LinkedEntityID
		outcome.AliasAdded, outcome.Err = c.link(ctx, confirmation)
	case entities.ActionNew:
		outcome.EntityID, outcome.Err = c.create(ctx, userID, confirmation)
		outcome.Created = outcome.Err == nil
	case entities.ActionSkip:
	}
	return outcome
}

// link attaches the mention to an existing entity: the mention text becomes
// a new alias when not already known, and the mention count increments.
// The read-modify-write is serialized per entity id.
func (c *Confirmer) link(ctx context.Context, confirmation entities.EntityConfirmation) (bool, error) {
	unlock := c.locks.Lock(confirmation.LinkedEntityID)
	defer unlock()

	entity, err := c.store.GetEntity(ctx, confirmation.LinkedEntityID)
	if err != nil {
		return false, fmt.Errorf("loading entity: %w", err)
	}
	if entity == nil {
		// Entity vanished mid-session; recoverable, siblings continue.
		return false, fmt.Errorf("%w: %s", ports.ErrEntityNotFound, confirmation.LinkedEntityID)
	}

	aliasAdded := entity.AddAlias(confirmation.MentionText)
	entity.MentionCount++
	entity.UpdatedAt = time.Now()

	if err := c.store.UpdateEntity(ctx, entity); err != nil {
		if errors.Is(err, ports.ErrEntityNotFound) {
			return false, fmt.Errorf("%w: %s", ports.ErrEntityNotFound, confirmation.LinkedEntityID)
		}
		return false, fmt.Errorf("updating entity: %w", err)
	}

	_ = c.store.LogAction(ctx, "entity.link", entity.ID, map[string]any{
		"mention":     confirmation.MentionText,
		"alias_added": aliasAdded,
	})
	return aliasAdded, nil
}

// create builds a new user-confirmed entity from the confirmation, seeding
// the aliases with the mention text when it differs from the canonical name.
func (c *Confirmer) create(ctx context.Context, userID string, confirmation entities.EntityConfirmation) (string, error) {
	now := time.Now()
	entity := &entities.PersonEntity{
		ID:              uuid.New().String(),
		UserID:          userID,
		CanonicalName:   entities.SuggestCanonicalName(confirmation.NewEntity.CanonicalName),
		Gender:          confirmation.NewEntity.Gender,
		ConfidenceScore: confirmedEntityConfidence,
		MentionCount:    1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	entity.AddAlias(confirmation.MentionText)
	for kind, refs := range confirmation.NewEntity.Relationships {
		for _, ref := range refs {
			entity.AddRelationship(kind, ref)
		}
	}

	if err := c.store.CreateEntity(ctx, entity); err != nil {
		return "", fmt.Errorf("creating entity: %w", err)
	}

	_ = c.store.LogAction(ctx, "entity.create", entity.ID, map[string]any{
		"canonical_name": entity.CanonicalName,
		"mention":        confirmation.MentionText,
	})
	return entity.ID, nil
}
