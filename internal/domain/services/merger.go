package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/memoirist/memoir-core/internal/domain/entities"
	"github.com/memoirist/memoir-core/internal/domain/ports"
)

// MergeResult describes a completed merge.
type MergeResult struct {
	Survivor    *entities.PersonEntity `json:"survivor"`
	AbsorbedIDs []string               `json:"absorbed_ids"`
	// Warnings carry the advisory pre-merge checks; they never block the
	// merge, the caller decides whether to show them before confirming.
	Warnings []string `json:"warnings,omitempty"`
}

// Merger consolidates entities the user identified as the same person.
type Merger struct {
	store  ports.EntityStore
	locks  *KeyedLocks
	logger *zap.Logger
}

// NewMerger creates a Merger.
func NewMerger(store ports.EntityStore, locks *KeyedLocks, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{store: store, locks: locks, logger: logger}
}

// Preview loads the participants and runs the advisory checks without
// writing anything. Callers show the warnings before asking the user to
// confirm the merge.
func (m *Merger) Preview(ctx context.Context, ids []string, primaryID string) (*MergeResult, error) {
	participants, err := m.load(ctx, ids, primaryID)
	if err != nil {
		return nil, err
	}
	survivor, absorbed := consolidate(participants, primaryID)
	return &MergeResult{
		Survivor:    survivor,
		AbsorbedIDs: absorbedIDs(absorbed),
		Warnings:    advisoryWarnings(participants),
	}, nil
}

// Merge consolidates the listed entities into the primary. The write is
// all-or-nothing: if it fails, none of the source entities are altered.
// All participant ids are locked for the whole read-modify-write so a
// concurrent confirmation cannot mutate an entity that is being absorbed.
func (m *Merger) Merge(ctx context.Context, ids []string, primaryID string) (*MergeResult, error) {
	unlock := m.locks.LockAll(ids)
	defer unlock()

	participants, err := m.load(ctx, ids, primaryID)
	if err != nil {
		return nil, err
	}

	warnings := advisoryWarnings(participants)
	survivorSeen := primarySnapshot(participants, primaryID)
	survivor, absorbed := consolidate(participants, primaryID)

	if err := m.store.ApplyMerge(ctx, survivor, survivorSeen, absorbed); err != nil {
		if errors.Is(err, ports.ErrMergeConflict) {
			return nil, fmt.Errorf("merge aborted, nothing changed: %w", err)
		}
		return nil, fmt.Errorf("applying merge: %w", err)
	}

	ids = absorbedIDs(absorbed)
	_ = m.store.LogAction(ctx, "entity.merge", survivor.ID, map[string]any{
		"absorbed": ids,
	})
	m.logger.Info("entities merged",
		zap.String("survivor", survivor.ID),
		zap.Strings("absorbed", ids))

	return &MergeResult{
		Survivor:    survivor,
		AbsorbedIDs: ids,
		Warnings:    warnings,
	}, nil
}

// primarySnapshot returns the primary's updated_at as read when the merge
// was planned, used to conflict-guard the survivor write.
func primarySnapshot(participants []*entities.PersonEntity, primaryID string) time.Time {
	for _, p := range participants {
		if p.ID == primaryID {
			return p.UpdatedAt
		}
	}
	return time.Time{}
}

// load validates the id list and fetches every participant.
func (m *Merger) load(ctx context.Context, ids []string, primaryID string) ([]*entities.PersonEntity, error) {
	unique := dedupe(ids)
	if len(unique) < 2 {
		return nil, errors.New("merge requires at least two distinct entity ids")
	}

	primaryFound := false
	participants := make([]*entities.PersonEntity, 0, len(unique))
	for _, id := range unique {
		entity, err := m.store.GetEntity(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading entity %s: %w", id, err)
		}
		if entity == nil {
			return nil, fmt.Errorf("%w: %s", ports.ErrEntityNotFound, id)
		}
		if entity.ID == primaryID {
			primaryFound = true
		}
		participants = append(participants, entity)
	}
	if !primaryFound {
		return nil, fmt.Errorf("primary entity %s is not among the merge participants", primaryID)
	}
	return participants, nil
}

// consolidate builds the surviving entity. The primary keeps its canonical
// name, display name, gender and birth date unless empty, in which case they
// are backfilled from a non-primary. Aliases and relationships are unioned
// (absorbed canonical names become aliases) and mention counts are summed.
func consolidate(participants []*entities.PersonEntity, primaryID string) (*entities.PersonEntity, []*entities.PersonEntity) {
	var primary *entities.PersonEntity
	var absorbed []*entities.PersonEntity
	for _, p := range participants {
		if p.ID == primaryID {
			primary = p
		} else {
			absorbed = append(absorbed, p)
		}
	}

	survivor := *primary
	survivor.Aliases = append([]string(nil), primary.Aliases...)
	survivor.Relationships = make(map[entities.RelationKind][]string, len(primary.Relationships))
	for kind, refs := range primary.Relationships {
		for _, ref := range refs {
			survivor.AddRelationship(kind, ref)
		}
	}

	for _, other := range absorbed {
		survivor.AddAlias(other.CanonicalName)
		if other.DisplayName != "" {
			survivor.AddAlias(other.DisplayName)
		}
		for _, alias := range other.Aliases {
			survivor.AddAlias(alias)
		}
		for kind, refs := range other.Relationships {
			for _, ref := range refs {
				survivor.AddRelationship(kind, ref)
			}
		}
		survivor.MentionCount += other.MentionCount

		if survivor.DisplayName == "" {
			survivor.DisplayName = other.DisplayName
		}
		if survivor.Gender == "" {
			survivor.Gender = other.Gender
		}
		if survivor.BirthDate == "" {
			survivor.BirthDate = other.BirthDate
		}
		if survivor.FirstMentionedIn == "" {
			survivor.FirstMentionedIn = other.FirstMentionedIn
		}
		if other.ConfidenceScore > survivor.ConfidenceScore {
			survivor.ConfidenceScore = other.ConfidenceScore
		}
	}

	survivor.UpdatedAt = time.Now()
	return &survivor, absorbed
}

// advisoryWarnings flags low-confidence merges: participants that share no
// relationship references at all, or that carry different birth dates, are
// probably distinct people. The merge still proceeds if the user confirms.
func advisoryWarnings(participants []*entities.PersonEntity) []string {
	var warnings []string

	withRelationships := 0
	refCounts := make(map[string]int)
	for _, p := range participants {
		if len(p.Relationships) == 0 {
			continue
		}
		withRelationships++
		seen := make(map[string]bool)
		for _, refs := range p.Relationships {
			for _, ref := range refs {
				normalized := entities.NormalizeName(ref)
				if !seen[normalized] {
					seen[normalized] = true
					refCounts[normalized]++
				}
			}
		}
	}
	if withRelationships >= 2 {
		shared := false
		for _, count := range refCounts {
			if count >= 2 {
				shared = true
				break
			}
		}
		if !shared {
			warnings = append(warnings, "participants share no relationship references; this may be a low-confidence merge")
		}
	}

	birthDates := make(map[string]bool)
	for _, p := range participants {
		if p.BirthDate != "" {
			birthDates[p.BirthDate] = true
		}
	}
	if len(birthDates) > 1 {
		warnings = append(warnings, "participants have different birth dates")
	}

	return warnings
}

func absorbedIDs(absorbed []*entities.PersonEntity) []string {
	ids := make([]string, 0, len(absorbed))
	for _, entity := range absorbed {
		ids = append(ids, entity.ID)
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
