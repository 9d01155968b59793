package handlers

import (
	"context"
	"fmt"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
	"github.com/memoirist/memoir-core/internal/domain/services"
)

// ConfirmationHandler applies user resolution decisions.
type ConfirmationHandler struct {
	confirmer *services.Confirmer
	store     ports.EntityStore
	syncer    *services.ProfileSyncer
}

// NewConfirmationHandler creates a new confirmation handler.
func NewConfirmationHandler(confirmer *services.Confirmer, store ports.EntityStore, syncer *services.ProfileSyncer) *ConfirmationHandler {
	return &ConfirmationHandler{
		confirmer: confirmer,
		store:     store,
		syncer:    syncer,
	}
}

// Handle applies a batch of confirmations and refreshes the profile index
// for every entity the batch touched.
func (h *ConfirmationHandler) Handle(ctx context.Context, userID string, confirmations []entities.EntityConfirmation) (*services.ConfirmationBatchResult, error) {
	result, err := h.confirmer.Apply(ctx, userID, confirmations)
	if result != nil {
		h.syncTouched(ctx, result)
	}
	if err != nil {
		return result, fmt.Errorf("applying confirmations: %w", err)
	}
	return result, nil
}

// syncTouched refreshes profile vectors for entities created or linked.
func (h *ConfirmationHandler) syncTouched(ctx context.Context, result *services.ConfirmationBatchResult) {
	if !h.syncer.Enabled() {
		return
	}
	for _, outcome := range result.Outcomes {
		if outcome.Err != nil || outcome.EntityID == "" {
			continue
		}
		entity, err := h.store.GetEntity(ctx, outcome.EntityID)
		if err != nil || entity == nil {
			continue
		}
		h.syncer.SyncEntity(ctx, entity)
	}
}
