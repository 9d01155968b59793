package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
)

// ProfileSyncer keeps the profile index aligned with the entity store. Each
// entity gets one vector built from all of its names. Sync failures are
// logged and swallowed: the index is a recall optimization and the resolver
// falls back to exhaustive scoring when it is stale or missing entries.
type ProfileSyncer struct {
	embedder ports.Embedder
	profiles ports.ProfileIndex
	logger   *zap.Logger
}

// NewProfileSyncer creates a ProfileSyncer. Both collaborators may be nil,
// which disables syncing entirely.
func NewProfileSyncer(embedder ports.Embedder, profiles ports.ProfileIndex, logger *zap.Logger) *ProfileSyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileSyncer{embedder: embedder, profiles: profiles, logger: logger}
}

// Enabled reports whether syncing is active.
func (s *ProfileSyncer) Enabled() bool {
	return s != nil && s.embedder != nil && s.profiles != nil
}

// SyncEntity writes or refreshes the profile vector for one entity.
func (s *ProfileSyncer) SyncEntity(ctx context.Context, entity *entities.PersonEntity) {
	if !s.Enabled() || entity == nil {
		return
	}

	names := entity.AllNames()
	embedding, err := s.embedder.Embed(ctx, strings.Join(names, ", "))
	if err != nil {
		s.logger.Warn("embedding entity profile failed",
			zap.String("entity_id", entity.ID),
			zap.Error(err))
		return
	}

	if err := s.profiles.UpsertProfile(ctx, entity.ID, embedding, names); err != nil {
		s.logger.Warn("upserting entity profile failed",
			zap.String("entity_id", entity.ID),
			zap.Error(err))
	}
}

// RemoveEntities drops the profile vectors for deleted or absorbed entities.
func (s *ProfileSyncer) RemoveEntities(ctx context.Context, ids []string) {
	if !s.Enabled() || len(ids) == 0 {
		return
	}
	if err := s.profiles.DeleteProfiles(ctx, ids); err != nil {
		s.logger.Warn("deleting entity profiles failed",
			zap.Strings("entity_ids", ids),
			zap.Error(err))
	}
}

// Rebuild re-syncs every entity of a user, for recovery after index loss.
func (s *ProfileSyncer) Rebuild(ctx context.Context, store ports.EntityStore, userID string) error {
	if !s.Enabled() {
		return nil
	}
	known, err := store.GetEntities(ctx, userID)
	if err != nil {
		return err
	}
	for _, entity := range known {
		s.SyncEntity(ctx, entity)
	}
	return nil
}
