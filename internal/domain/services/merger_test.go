package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/mocks"
	"github.com/memoirist/memoir-core/internal/domain/ports"
)

func seedCarolineVariants(store *mocks.EntityStore) {
	store.Add(&entities.PersonEntity{
		ID:            "id-full",
		UserID:        "marc",
		CanonicalName: "Caroline Cadario",
		BirthDate:     "1987-04-12",
		MentionCount:  4,
		Relationships: map[entities.RelationKind][]string{
			entities.RelationSpouse: {"Marc"},
		},
	})
	store.Add(&entities.PersonEntity{
		ID:            "id-caro",
		UserID:        "marc",
		CanonicalName: "Caro",
		MentionCount:  7,
		Relationships: map[entities.RelationKind][]string{
			entities.RelationSpouse: {"Marc"},
		},
	})
	store.Add(&entities.PersonEntity{
		ID:            "id-amore",
		UserID:        "marc",
		CanonicalName: "mi amore",
		MentionCount:  2,
	})
}

func newTestMerger(store ports.EntityStore) *Merger {
	return NewMerger(store, NewKeyedLocks(), nil)
}

func TestMergeUnionsNamesAndCounts(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)
	merger := newTestMerger(store)

	result, err := merger.Merge(context.Background(), []string{"id-full", "id-caro", "id-amore"}, "id-full")
	require.NoError(t, err)

	survivor := result.Survivor
	assert.Equal(t, "Caroline Cadario", survivor.CanonicalName)
	assert.ElementsMatch(t, []string{"Caro", "mi amore"}, survivor.Aliases)
	assert.Equal(t, 13, survivor.MentionCount)
	assert.Equal(t, []string{"Marc"}, survivor.Relationships[entities.RelationSpouse])
	assert.ElementsMatch(t, []string{"id-caro", "id-amore"}, result.AbsorbedIDs)

	// The absorbed entities are gone, the survivor is persisted.
	assert.Len(t, store.Entities, 1)
	stored := store.Entities["id-full"]
	require.NotNil(t, stored)
	assert.ElementsMatch(t, []string{"Caro", "mi amore"}, stored.Aliases)
}

func TestMergeAliasSetIndependentOfPrimary(t *testing.T) {
	// Merging the same group keeps the same name set regardless of which
	// participant survives; only the canonical name differs.
	ids := []string{"id-full", "id-caro", "id-amore"}

	storeA := mocks.NewEntityStore()
	seedCarolineVariants(storeA)
	resultA, err := newTestMerger(storeA).Merge(context.Background(), ids, "id-full")
	require.NoError(t, err)

	storeB := mocks.NewEntityStore()
	seedCarolineVariants(storeB)
	resultB, err := newTestMerger(storeB).Merge(context.Background(), ids, "id-caro")
	require.NoError(t, err)

	namesA := append([]string{resultA.Survivor.CanonicalName}, resultA.Survivor.Aliases...)
	namesB := append([]string{resultB.Survivor.CanonicalName}, resultB.Survivor.Aliases...)
	assert.ElementsMatch(t, namesA, namesB)
	assert.Equal(t, resultA.Survivor.MentionCount, resultB.Survivor.MentionCount)
}

func TestMergeBackfillsPrimaryFields(t *testing.T) {
	store := mocks.NewEntityStore()
	store.Add(&entities.PersonEntity{
		ID:            "id-bare",
		UserID:        "marc",
		CanonicalName: "Caro",
	})
	store.Add(&entities.PersonEntity{
		ID:            "id-rich",
		UserID:        "marc",
		CanonicalName: "Caroline Cadario",
		DisplayName:   "Caroline",
		Gender:        entities.GenderFemale,
		BirthDate:     "1987-04-12",
	})

	result, err := newTestMerger(store).Merge(context.Background(), []string{"id-bare", "id-rich"}, "id-bare")
	require.NoError(t, err)

	survivor := result.Survivor
	assert.Equal(t, "Caro", survivor.CanonicalName)
	assert.Equal(t, "Caroline", survivor.DisplayName)
	assert.Equal(t, entities.GenderFemale, survivor.Gender)
	assert.Equal(t, "1987-04-12", survivor.BirthDate)
}

func TestMergeRequiresTwoDistinctIDs(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)
	merger := newTestMerger(store)

	_, err := merger.Merge(context.Background(), []string{"id-full", "id-full"}, "id-full")
	assert.ErrorContains(t, err, "at least two distinct")
}

func TestMergeRequiresPrimaryAmongParticipants(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)
	merger := newTestMerger(store)

	_, err := merger.Merge(context.Background(), []string{"id-full", "id-caro"}, "id-amore")
	assert.ErrorContains(t, err, "not among the merge participants")
}

func TestMergeMissingParticipantFails(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)
	merger := newTestMerger(store)

	_, err := merger.Merge(context.Background(), []string{"id-full", "id-gone"}, "id-full")
	assert.ErrorIs(t, err, ports.ErrEntityNotFound)
	// Nothing changed.
	assert.Len(t, store.Entities, 3)
}

func TestMergeConflictAbortsCleanly(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)
	store.MergeErr = ports.ErrMergeConflict
	merger := newTestMerger(store)

	_, err := merger.Merge(context.Background(), []string{"id-full", "id-caro"}, "id-full")
	assert.ErrorIs(t, err, ports.ErrMergeConflict)
	assert.ErrorContains(t, err, "nothing changed")
	assert.Len(t, store.Entities, 3)
	assert.Empty(t, store.Entities["id-full"].Aliases)
}

func TestMergeDetectsConcurrentModification(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)

	// Simulate a write landing after the merge read its snapshots: the mock
	// compares UpdatedAt during ApplyMerge.
	merger := NewMerger(&tamperingStore{EntityStore: store, targetID: "id-caro"}, NewKeyedLocks(), nil)
	_, err := merger.Merge(context.Background(), []string{"id-full", "id-caro"}, "id-full")
	assert.ErrorIs(t, err, ports.ErrMergeConflict)
}

func TestMergeDetectsConcurrentSurvivorModification(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)

	// A write to the primary itself between plan and apply also conflicts.
	merger := NewMerger(&tamperingStore{EntityStore: store, targetID: "id-full"}, NewKeyedLocks(), nil)
	_, err := merger.Merge(context.Background(), []string{"id-full", "id-caro"}, "id-full")
	assert.ErrorIs(t, err, ports.ErrMergeConflict)
	// The absorbed entity survived the aborted merge.
	assert.Contains(t, store.Entities, "id-caro")
}

// tamperingStore mutates one participant between the merge's read and its
// write, to exercise conflict detection.
type tamperingStore struct {
	*mocks.EntityStore
	targetID string
	tampered bool
}

func (s *tamperingStore) GetEntity(ctx context.Context, id string) (*entities.PersonEntity, error) {
	entity, err := s.EntityStore.GetEntity(ctx, id)
	if err == nil && entity != nil && id == s.targetID && !s.tampered {
		s.tampered = true
		stored := s.Entities[id]
		stored.UpdatedAt = stored.UpdatedAt.Add(time.Second)
	}
	return entity, err
}

func TestPreviewWritesNothing(t *testing.T) {
	store := mocks.NewEntityStore()
	seedCarolineVariants(store)
	merger := newTestMerger(store)

	result, err := merger.Preview(context.Background(), []string{"id-full", "id-caro"}, "id-full")
	require.NoError(t, err)
	assert.Equal(t, []string{"Caro"}, result.Survivor.Aliases)

	assert.Len(t, store.Entities, 3)
	assert.Empty(t, store.Entities["id-full"].Aliases)
	assert.Empty(t, store.Audit)
}

func TestMergeAdvisoryWarnings(t *testing.T) {
	store := mocks.NewEntityStore()
	store.Add(&entities.PersonEntity{
		ID:            "id-a",
		UserID:        "marc",
		CanonicalName: "Caroline",
		BirthDate:     "1987-04-12",
		Relationships: map[entities.RelationKind][]string{
			entities.RelationSpouse: {"Marc"},
		},
	})
	store.Add(&entities.PersonEntity{
		ID:            "id-b",
		UserID:        "marc",
		CanonicalName: "Carolyn",
		BirthDate:     "1990-01-01",
		Relationships: map[entities.RelationKind][]string{
			entities.RelationSpouse: {"Hugo"},
		},
	})

	result, err := newTestMerger(store).Preview(context.Background(), []string{"id-a", "id-b"}, "id-a")
	require.NoError(t, err)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "no relationship references")
	assert.Contains(t, result.Warnings[1], "different birth dates")
}
