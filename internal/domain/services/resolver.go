package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
)

const (
	// DefaultContextRadius is the number of characters kept on each side of
	// a mention span for disambiguation.
	DefaultContextRadius = 60

	// DefaultRecallThreshold is the entity count above which the profile
	// index pre-selects candidates instead of scoring the whole store.
	DefaultRecallThreshold = 200

	// DefaultRecallLimit is how many candidates the profile index returns.
	DefaultRecallLimit = 50
)

// ResolverOptions controls suggestion generation.
type ResolverOptions struct {
	ContextRadius   int
	RecallThreshold int
	RecallLimit     int
}

// DefaultResolverOptions returns the default resolver tuning.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		ContextRadius:   DefaultContextRadius,
		RecallThreshold: DefaultRecallThreshold,
		RecallLimit:     DefaultRecallLimit,
	}
}

// SuggestResult contains the suggestions for one narrative text block.
// Suggestions preserve the order mentions appeared in the source text.
type SuggestResult struct {
	Suggestions []entities.EntityResolutionSuggestion
	// ExtractionDegraded is true when the extraction collaborator failed
	// and the result deliberately contains zero suggestions.
	ExtractionDegraded bool
	// DroppedSpans counts malformed spans discarded during validation.
	DroppedSpans int
}

// Resolver turns narrative text into decision-ready resolution suggestions.
// Resolution is best-effort enrichment: extraction failure degrades to an
// empty result and never blocks the caller's save workflow.
type Resolver struct {
	extractor ports.MentionExtractor
	store     ports.EntityStore
	matcher   *Matcher
	embedder  ports.Embedder     // optional, enables profile recall
	profiles  ports.ProfileIndex // optional, enables profile recall
	logger    *zap.Logger
	opts      ResolverOptions
}

// NewResolver creates a Resolver. embedder and profiles may be nil, in which
// case every known entity is scored for every mention.
func NewResolver(
	extractor ports.MentionExtractor,
	store ports.EntityStore,
	matcher *Matcher,
	embedder ports.Embedder,
	profiles ports.ProfileIndex,
	logger *zap.Logger,
	opts ResolverOptions,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		extractor: extractor,
		store:     store,
		matcher:   matcher,
		embedder:  embedder,
		profiles:  profiles,
		logger:    logger,
		opts:      opts,
	}
}

// Suggest extracts mentions from text and matches each against the user's
// known entities. On context cancellation the partial suggestion list built
// so far is returned together with the context error.
func (r *Resolver) Suggest(ctx context.Context, userID, text string) (*SuggestResult, error) {
	known, err := r.store.GetEntities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}

	extraction, err := r.extractor.ExtractMentions(ctx, text, aliasHints(known))
	if err != nil {
		r.logger.Warn("mention extraction unavailable, returning zero suggestions",
			zap.String("user_id", userID),
			zap.Error(err))
		return &SuggestResult{ExtractionDegraded: true}, nil
	}

	mentions, dropped := r.validateSpans(text, extraction)

	out := &SuggestResult{
		Suggestions:  make([]entities.EntityResolutionSuggestion, 0, len(mentions)),
		DroppedSpans: dropped,
	}

	for _, mention := range mentions {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		candidates := r.candidatesFor(ctx, mention, known)
		out.Suggestions = append(out.Suggestions, r.suggestOne(mention, candidates))
	}
	return out, nil
}

// suggestOne builds the suggestion for a single mention.
func (r *Resolver) suggestOne(mention entities.EntityMention, candidates []*entities.PersonEntity) entities.EntityResolutionSuggestion {
	matches := r.matcher.Match(mention, candidates)

	isNew := len(matches) == 0 || matches[0].TotalConfidence < r.matcher.Config().NewEntityThreshold

	suggestion := entities.EntityResolutionSuggestion{
		Mention:         mention,
		PossibleMatches: matches,
		IsNewEntity:     isNew,
	}
	if isNew {
		suggestion.SuggestedCanonicalName = entities.SuggestCanonicalName(mention.Text)
	}
	return suggestion
}

// candidatesFor narrows the candidate set through the profile index when the
// store is large enough to make exhaustive scoring wasteful. Recall failures
// fall back to the full set; recall is an optimization, never a gatekeeper.
func (r *Resolver) candidatesFor(ctx context.Context, mention entities.EntityMention, known []*entities.PersonEntity) []*entities.PersonEntity {
	if r.embedder == nil || r.profiles == nil || len(known) <= r.opts.RecallThreshold {
		return known
	}

	embedding, err := r.embedder.Embed(ctx, mention.Text+" "+mention.Context)
	if err != nil {
		r.logger.Warn("embedding mention for recall failed, scoring all entities", zap.Error(err))
		return known
	}

	ids, err := r.profiles.SearchProfiles(ctx, embedding, r.opts.RecallLimit)
	if err != nil {
		r.logger.Warn("profile recall failed, scoring all entities", zap.Error(err))
		return known
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	recalled := make([]*entities.PersonEntity, 0, len(ids))
	for _, entity := range known {
		if wanted[entity.ID] {
			recalled = append(recalled, entity)
		}
	}
	if len(recalled) == 0 {
		return known
	}
	return recalled
}

// validateSpans converts raw spans into mentions, dropping spans whose
// offsets don't land inside the source text or whose text doesn't match the
// span. The extraction collaborator is untrusted output; everything it
// reports is checked before use.
func (r *Resolver) validateSpans(text string, extraction *ports.ExtractionResult) ([]entities.EntityMention, int) {
	dropped := extraction.Dropped
	mentions := make([]entities.EntityMention, 0, len(extraction.Spans))

	for _, span := range extraction.Spans {
		mention := entities.EntityMention{
			Text:       span.Text,
			StartIndex: span.StartIndex,
			EndIndex:   span.EndIndex,
		}
		valid := mention.Validate(len(text)) == nil &&
			text[mention.StartIndex:mention.EndIndex] == span.Text
		if !valid {
			// Offsets from the model are frequently off; recover by locating
			// the reported text instead of discarding the span.
			idx := strings.Index(text, span.Text)
			if idx < 0 || span.Text == "" {
				dropped++
				continue
			}
			mention.StartIndex = idx
			mention.EndIndex = idx + len(span.Text)
		}
		mention.Context = entities.ContextWindow(text, mention.StartIndex, mention.EndIndex, r.opts.ContextRadius)
		mentions = append(mentions, mention)
	}
	return mentions, dropped
}

// aliasHints flattens every known name into a hint list for the extractor.
func aliasHints(known []*entities.PersonEntity) []string {
	var hints []string
	for _, entity := range known {
		hints = append(hints, entity.AllNames()...)
	}
	return hints
}
