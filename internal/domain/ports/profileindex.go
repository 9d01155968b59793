package ports

import "context"

// ProfileIndex stores one vector per entity, built from its names and
// aliases. It is used to recall candidate entities for a mention when the
// user's entity set is too large to score exhaustively.
type ProfileIndex interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// Close closes the connection.
	Close() error

	// UpsertProfile stores or replaces the profile vector for an entity.
	UpsertProfile(ctx context.Context, entityID string, embedding []float32, names []string) error

	// SearchProfiles returns the ids of the entities whose profiles are
	// closest to the query embedding.
	SearchProfiles(ctx context.Context, embedding []float32, limit int) ([]string, error)

	// DeleteProfiles removes the profile vectors for the given entities.
	DeleteProfiles(ctx context.Context, entityIDs []string) error
}
