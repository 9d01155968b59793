package handlers

import (
	"context"

	"github.com/memoirist/memoir-core/internal/domain/services"
)

// MergeHandler consolidates duplicate entities.
type MergeHandler struct {
	merger *services.Merger
	syncer *services.ProfileSyncer
}

// NewMergeHandler creates a new merge handler.
func NewMergeHandler(merger *services.Merger, syncer *services.ProfileSyncer) *MergeHandler {
	return &MergeHandler{
		merger: merger,
		syncer: syncer,
	}
}

// Preview runs the advisory checks and shows what the merge would produce,
// without writing anything.
func (h *MergeHandler) Preview(ctx context.Context, ids []string, primaryID string) (*services.MergeResult, error) {
	return h.merger.Preview(ctx, ids, primaryID)
}

// Handle merges the listed entities into the primary and updates the
// profile index to match.
func (h *MergeHandler) Handle(ctx context.Context, ids []string, primaryID string) (*services.MergeResult, error) {
	result, err := h.merger.Merge(ctx, ids, primaryID)
	if err != nil {
		return nil, err
	}

	h.syncer.RemoveEntities(ctx, result.AbsorbedIDs)
	h.syncer.SyncEntity(ctx, result.Survivor)

	return result, nil
}
