package handlers

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/mocks"
	"github.com/memoirist/memoir-core/internal/domain/ports"
	"github.com/memoirist/memoir-core/internal/domain/services"
)

func newEntityHandler(store ports.EntityStore) *EntityHandler {
	return NewEntityHandler(store, services.NewKeyedLocks(), nil)
}

func seedPerson(store *mocks.EntityStore, id, name string) *entities.PersonEntity {
	now := time.Now()
	entity := &entities.PersonEntity{
		ID:              id,
		UserID:          "marc",
		CanonicalName:   name,
		ConfidenceScore: 0.9,
		MentionCount:    1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	store.Add(entity)
	return entity
}

func TestRelate(t *testing.T) {
	store := mocks.NewEntityStore()
	seedPerson(store, "id-caroline", "Caroline Cadario")
	handler := newEntityHandler(store)

	updated, err := handler.Relate(context.Background(), "id-caroline", entities.RelationSpouse, "Marc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Marc"}, updated.Relationships[entities.RelationSpouse])

	stored := store.Entities["id-caroline"]
	assert.Equal(t, []string{"Marc"}, stored.Relationships[entities.RelationSpouse])

	entries, err := store.FindAuditLog(context.Background(), "id-caroline")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entity.relate", entries[0].Action)
}

func TestRelateDuplicateIsNoOp(t *testing.T) {
	store := mocks.NewEntityStore()
	entity := seedPerson(store, "id-caroline", "Caroline Cadario")
	entity.AddRelationship(entities.RelationSpouse, "Marc")
	store.Add(entity)
	handler := newEntityHandler(store)

	updated, err := handler.Relate(context.Background(), "id-caroline", entities.RelationSpouse, "Marc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Marc"}, updated.Relationships[entities.RelationSpouse])

	entries, err := store.FindAuditLog(context.Background(), "id-caroline")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRelateInvalidKind(t *testing.T) {
	handler := newEntityHandler(mocks.NewEntityStore())

	_, err := handler.Relate(context.Background(), "id-caroline", "nemesis", "Kevin")
	assert.ErrorContains(t, err, "unknown relationship kind")
}

func TestRelateMissingEntity(t *testing.T) {
	handler := newEntityHandler(mocks.NewEntityStore())

	_, err := handler.Relate(context.Background(), "id-gone", entities.RelationFriend, "Kevin")
	assert.ErrorIs(t, err, ports.ErrEntityNotFound)
}

func TestImportJSON(t *testing.T) {
	store := mocks.NewEntityStore()
	handler := newEntityHandler(store)

	input := `[
		{"canonical_name": "Caroline Cadario", "aliases": ["Caro"], "relationships": {"spouse": ["Marc"]}},
		{"canonical_name": "Tom"}
	]`

	result, err := handler.Import(context.Background(), "marc", strings.NewReader(input), "json")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)
	assert.Len(t, store.Entities, 2)
}

func TestImportSkipsKnownNames(t *testing.T) {
	store := mocks.NewEntityStore()
	known := seedPerson(store, "id-caroline", "Caroline Cadario")
	known.AddAlias("Caro")
	store.Add(known)
	handler := newEntityHandler(store)

	// Both records collide with the existing entity, one via its alias.
	input := `[
		{"canonical_name": "Caroline Cadario"},
		{"canonical_name": "caro"},
		{"canonical_name": "Tom"}
	]`

	result, err := handler.Import(context.Background(), "marc", strings.NewReader(input), "json")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, store.Entities, 2)
}

func TestImportReportsBadRecordsAndContinues(t *testing.T) {
	store := mocks.NewEntityStore()
	handler := newEntityHandler(store)

	input := `[
		{"canonical_name": ""},
		{"canonical_name": "Kevin", "confidence_score": 7},
		{"canonical_name": "Tom"}
	]`

	result, err := handler.Import(context.Background(), "marc", strings.NewReader(input), "json")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "record 1")
	assert.Contains(t, result.Errors[0], "canonical name is required")
	assert.Contains(t, result.Errors[1], "record 2")
	assert.Contains(t, result.Errors[1], "out of range")
}

func TestImportUnsupportedFormat(t *testing.T) {
	handler := newEntityHandler(mocks.NewEntityStore())

	_, err := handler.Import(context.Background(), "marc", strings.NewReader(""), "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestImportStopsOnCanceledContext(t *testing.T) {
	store := mocks.NewEntityStore()
	handler := newEntityHandler(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := handler.Import(ctx, "marc", strings.NewReader(`[{"canonical_name": "Tom"}]`), "json")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Zero(t, result.Imported)
}

func TestExportRoundtripsThroughImport(t *testing.T) {
	store := mocks.NewEntityStore()
	entity := seedPerson(store, "id-caroline", "Caroline Cadario")
	entity.AddAlias("Caro")
	store.Add(entity)
	handler := newEntityHandler(store)

	var buf bytes.Buffer
	count, err := handler.Export(context.Background(), "marc", &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	fresh := mocks.NewEntityStore()
	freshHandler := newEntityHandler(fresh)
	result, err := freshHandler.Import(context.Background(), "marc", &buf, "json")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	imported := fresh.Entities["id-caroline"]
	require.NotNil(t, imported)
	assert.Equal(t, []string{"Caro"}, imported.Aliases)
}

func TestReindex(t *testing.T) {
	store := mocks.NewEntityStore()
	seedPerson(store, "id-caroline", "Caroline Cadario")
	seedPerson(store, "id-tom", "Tom")

	index := mocks.NewProfileIndex()
	syncer := services.NewProfileSyncer(mocks.NewEmbedder(8), index, nil)
	handler := NewEntityHandler(store, services.NewKeyedLocks(), syncer)

	enabled, err := handler.Reindex(context.Background(), "marc")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Len(t, index.Upserted, 2)
	assert.Equal(t, []string{"Caroline Cadario"}, index.Upserted["id-caroline"])
}

func TestReindexDisabledWithoutSyncer(t *testing.T) {
	handler := newEntityHandler(mocks.NewEntityStore())

	enabled, err := handler.Reindex(context.Background(), "marc")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestDelete(t *testing.T) {
	store := mocks.NewEntityStore()
	seedPerson(store, "id-caroline", "Caroline Cadario")
	handler := newEntityHandler(store)

	require.NoError(t, handler.Delete(context.Background(), "id-caroline"))
	assert.Empty(t, store.Entities)

	entries, err := store.FindAuditLog(context.Background(), "id-caroline")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entity.delete", entries[0].Action)
}
