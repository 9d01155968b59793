package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/memoirist/memoir-core/internal/application/handlers"
	"github.com/memoirist/memoir-core/internal/domain/ports"
	"github.com/memoirist/memoir-core/internal/domain/services"
	"github.com/memoirist/memoir-core/internal/infrastructure/config"
	embedder "github.com/memoirist/memoir-core/internal/infrastructure/embedder/openai"
	"github.com/memoirist/memoir-core/internal/infrastructure/entitystore/sqlite"
	"github.com/memoirist/memoir-core/internal/infrastructure/llm"
	extractor "github.com/memoirist/memoir-core/internal/infrastructure/llm/openai"
	"github.com/memoirist/memoir-core/internal/infrastructure/profileindex/qdrant"
	"github.com/memoirist/memoir-core/internal/logging"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config              *config.Config
	Logger              *zap.Logger
	ResolutionHandler   *handlers.ResolutionHandler
	ConfirmationHandler *handlers.ConfirmationHandler
	MergeHandler        *handlers.MergeHandler
	EntityHandler       *handlers.EntityHandler
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if globalUser == "" {
		return errors.New("user is required (use --user flag)")
	}

	logger, err := logging.New(globalVerbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is harmless

	store, err := sqlite.NewRepository(config.SQLiteConfig{
		Path: config.SQLitePathForUser(cwd, globalUser),
	})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	var emb ports.Embedder
	var profiles ports.ProfileIndex
	if cfg.Embedder.Enabled {
		e, err := embedder.NewEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		emb = e

		qdrantCfg := cfg.Qdrant
		qdrantCfg.Collection = config.GenerateCollectionName(globalUser)
		index, err := qdrant.NewRepository(qdrantCfg)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer index.Close()
		profiles = index
	}

	rawExtractor, err := extractor.NewExtractor(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating extractor: %w", err)
	}
	guarded := llm.NewGuardedExtractor(rawExtractor, llm.DefaultGuardConfig())

	matcher := services.NewMatcher(matchConfig(cfg.Matching))
	resolver := services.NewResolver(guarded, store, matcher, emb, profiles, logger, services.DefaultResolverOptions())

	locks := services.NewKeyedLocks()
	confirmer := services.NewConfirmer(store, locks, logger)
	merger := services.NewMerger(store, locks, logger)
	syncer := services.NewProfileSyncer(emb, profiles, logger)

	deps := &Deps{
		Config:              cfg,
		Logger:              logger,
		ResolutionHandler:   handlers.NewResolutionHandler(resolver),
		ConfirmationHandler: handlers.NewConfirmationHandler(confirmer, store, syncer),
		MergeHandler:        handlers.NewMergeHandler(merger, syncer),
		EntityHandler:       handlers.NewEntityHandler(store, locks, syncer),
	}

	return fn(deps)
}

// matchConfig maps the config file matching section onto the matcher,
// falling back to defaults for unset values.
func matchConfig(m config.MatchingConfig) services.MatchConfig {
	cfg := services.DefaultMatchConfig()
	if m.LexicalWeight > 0 {
		cfg.LexicalWeight = m.LexicalWeight
	}
	if m.ContextWeight > 0 {
		cfg.ContextWeight = m.ContextWeight
	}
	if m.MinConfidence > 0 {
		cfg.MinConfidence = m.MinConfidence
	}
	if m.NewEntityThreshold > 0 {
		cfg.NewEntityThreshold = m.NewEntityThreshold
	}
	if m.MaxMatches > 0 {
		cfg.MaxMatches = m.MaxMatches
	}
	if m.MinFuzzyLength > 0 {
		cfg.MinFuzzyLength = m.MinFuzzyLength
	}
	return cfg
}
