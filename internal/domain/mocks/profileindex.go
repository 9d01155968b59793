package mocks

import "context"

// ProfileIndex is a mock implementation of ports.ProfileIndex.
type ProfileIndex struct {
	// SearchResult is returned from every SearchProfiles call.
	SearchResult []string
	Upserted     map[string][]string // entity id -> names
	Deleted      []string
	Err          error
}

// NewProfileIndex creates a new mock ProfileIndex.
func NewProfileIndex() *ProfileIndex {
	return &ProfileIndex{Upserted: make(map[string][]string)}
}

// EnsureCollection creates the collection if it doesn't exist.
func (m *ProfileIndex) EnsureCollection(_ context.Context, _ uint64) error {
	return m.Err
}

// Close closes the connection.
func (m *ProfileIndex) Close() error {
	return nil
}

// UpsertProfile stores or replaces the profile vector for an entity.
func (m *ProfileIndex) UpsertProfile(_ context.Context, entityID string, _ []float32, names []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Upserted[entityID] = names
	return nil
}

// SearchProfiles returns the configured entity ids.
func (m *ProfileIndex) SearchProfiles(_ context.Context, _ []float32, limit int) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.SearchResult) > limit {
		return m.SearchResult[:limit], nil
	}
	return m.SearchResult, nil
}

// DeleteProfiles removes the profile vectors for the given entities.
func (m *ProfileIndex) DeleteProfiles(_ context.Context, entityIDs []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, entityIDs...)
	return nil
}
