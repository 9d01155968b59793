// Package llm provides resilience wrappers for LLM-backed collaborators.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/memoirist/memoir-core/internal/domain/ports"
)

// GuardConfig tunes the extraction guard.
type GuardConfig struct {
	// MaxFailures is the number of consecutive failures that trip the circuit.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before half-open probing.
	OpenTimeout time.Duration
	// RequestsPerSecond bounds the call rate to the provider.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size.
	Burst int
}

// DefaultGuardConfig returns the default guard tuning.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxFailures:       3,
		OpenTimeout:       30 * time.Second,
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// GuardedExtractor wraps a MentionExtractor with a circuit breaker and a
// rate limiter. Extraction is best-effort enrichment: when the provider is
// failing, the open circuit turns calls into immediate
// ErrExtractionUnavailable instead of piling up slow failures, and the
// resolver degrades to zero suggestions.
type GuardedExtractor struct {
	inner   ports.MentionExtractor
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGuardedExtractor wraps inner with the given tuning.
func NewGuardedExtractor(inner ports.MentionExtractor, cfg GuardConfig) *GuardedExtractor {
	settings := gobreaker.Settings{
		Name:    "mention-extractor",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}

	return &GuardedExtractor{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// ExtractMentions calls the wrapped extractor through the rate limiter and
// circuit breaker.
func (g *GuardedExtractor) ExtractMentions(ctx context.Context, text string, knownAliases []string) (*ports.ExtractionResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrExtractionUnavailable, err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.ExtractMentions(ctx, text, knownAliases)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ports.ErrExtractionUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrExtractionUnavailable, err)
	}

	return result.(*ports.ExtractionResult), nil
}

// State returns the current circuit state for diagnostics.
func (g *GuardedExtractor) State() string {
	switch g.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
