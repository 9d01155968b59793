package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoirist/memoir-core/internal/domain/mocks"
	"github.com/memoirist/memoir-core/internal/domain/ports"
	"github.com/memoirist/memoir-core/internal/domain/services"
)

func newResolutionHandler(extractor ports.MentionExtractor, store ports.EntityStore) *ResolutionHandler {
	resolver := services.NewResolver(
		extractor,
		store,
		services.NewMatcher(services.DefaultMatchConfig()),
		nil, nil, nil,
		services.DefaultResolverOptions(),
	)
	return NewResolutionHandler(resolver)
}

func TestResolutionHandlerSuggests(t *testing.T) {
	store := mocks.NewEntityStore()
	extractor := mocks.NewMentionExtractor(ports.RawSpan{Text: "Kevin", StartIndex: 0, EndIndex: 5})
	handler := newResolutionHandler(extractor, store)

	result, err := handler.Handle(context.Background(), "marc", "Kevin came by.")
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 1)
	assert.True(t, result.Suggestions[0].IsNewEntity)
	assert.False(t, result.Shared)
}

func TestResolutionHandlerStoreFailure(t *testing.T) {
	store := mocks.NewEntityStore()
	store.Err = errors.New("disk on fire")
	handler := newResolutionHandler(mocks.NewMentionExtractor(), store)

	_, err := handler.Handle(context.Background(), "marc", "Kevin came by.")
	assert.ErrorContains(t, err, "loading entities")
}

// blockingExtractor holds every call until released so tests can pile up
// concurrent requests on the same key.
type blockingExtractor struct {
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (b *blockingExtractor) ExtractMentions(_ context.Context, _ string, _ []string) (*ports.ExtractionResult, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return &ports.ExtractionResult{
		Spans: []ports.RawSpan{{Text: "Kevin", StartIndex: 0, EndIndex: 5}},
	}, nil
}

func TestResolutionHandlerDeduplicatesIdenticalRequests(t *testing.T) {
	extractor := &blockingExtractor{release: make(chan struct{})}
	handler := newResolutionHandler(extractor, mocks.NewEntityStore())

	const workers = 8
	results := make([]*ResolutionResult, workers)
	errs := make([]error, workers)

	var started, done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = handler.Handle(context.Background(), "marc", "Kevin came by.")
		}(i)
	}
	started.Wait()
	close(extractor.release)
	done.Wait()

	shared := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i].Suggestions, 1)
		if results[i].Shared {
			shared++
		}
	}
	// At least the joiners shared; extraction ran far fewer times than workers.
	assert.GreaterOrEqual(t, shared, 1)
	extractor.mu.Lock()
	defer extractor.mu.Unlock()
	assert.Less(t, extractor.calls, workers)
}

func TestResolutionHandlerDistinctTextsRunSeparately(t *testing.T) {
	store := mocks.NewEntityStore()
	extractor := mocks.NewMentionExtractor()
	handler := newResolutionHandler(extractor, store)

	_, err := handler.Handle(context.Background(), "marc", "first text")
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), "marc", "second text")
	require.NoError(t, err)

	assert.Equal(t, 2, extractor.Calls)
}

func TestRequestKeyDependsOnUserAndText(t *testing.T) {
	assert.Equal(t, requestKey("marc", "hello"), requestKey("marc", "hello"))
	assert.NotEqual(t, requestKey("marc", "hello"), requestKey("marc", "world"))
	assert.NotEqual(t, requestKey("marc", "hello"), requestKey("anna", "hello"))
}
