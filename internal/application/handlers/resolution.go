// Package handlers wires domain services into application-level operations.
package handlers

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/memoirist/memoir-core/internal/domain/services"
)

// ResolutionHandler produces resolution suggestions for narrative text.
type ResolutionHandler struct {
	resolver *services.Resolver
	inflight *services.InflightGroup
}

// NewResolutionHandler creates a new resolution handler.
func NewResolutionHandler(resolver *services.Resolver) *ResolutionHandler {
	return &ResolutionHandler{
		resolver: resolver,
		inflight: services.NewInflightGroup(),
	}
}

// ResolutionResult wraps the suggestions with request-level metadata.
type ResolutionResult struct {
	*services.SuggestResult
	// Shared is true when this request joined an identical in-flight
	// request instead of running extraction again.
	Shared bool
}

// Handle resolves mentions in text for a user. Identical concurrent requests
// (same user, same text) share one underlying resolution run.
func (h *ResolutionHandler) Handle(ctx context.Context, userID, text string) (*ResolutionResult, error) {
	key := requestKey(userID, text)

	val, shared, err := h.inflight.Do(key, func() (any, error) {
		return h.resolver.Suggest(ctx, userID, text)
	})

	result, _ := val.(*services.SuggestResult)
	if result == nil && err != nil {
		return nil, err
	}
	return &ResolutionResult{SuggestResult: result, Shared: shared}, err
}

// requestKey builds the dedup key for a resolution request. The text is
// hashed so long narratives don't become map keys.
func requestKey(userID, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%x", userID, sum)
}
