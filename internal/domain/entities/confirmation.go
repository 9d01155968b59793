package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ConfirmationAction is the user's decision for one mention.
type ConfirmationAction string

const (
	ActionLink ConfirmationAction = "link"
	ActionNew  ConfirmationAction = "new"
	ActionSkip ConfirmationAction = "skip"
)

// NewEntityData carries the fields for creating an entity from a confirmation.
type NewEntityData struct {
	CanonicalName string                    `json:"canonical_name"`
	Gender        Gender                    `json:"gender,omitempty"`
	Relationships map[RelationKind][]string `json:"relationships,omitempty"`
}

// EntityConfirmation is a user decision for one mention: link it to an
// existing entity, create a new one, or skip it.
type EntityConfirmation struct {
	MentionText    string             `json:"mention_text"`
	Action         ConfirmationAction `json:"action"`
	LinkedEntityID string             `json:"linked_entity_id,omitempty"`
	NewEntity      *NewEntityData     `json:"new_entity,omitempty"`
}

// Validate checks that the confirmation carries the fields its action requires.
func (c EntityConfirmation) Validate() error {
	if strings.TrimSpace(c.MentionText) == "" {
		return errors.New("mention text is required")
	}
	switch c.Action {
	case ActionLink:
		if c.LinkedEntityID == "" {
			return errors.New("linked entity id is required for link action")
		}
	case ActionNew:
		if c.NewEntity == nil || strings.TrimSpace(c.NewEntity.CanonicalName) == "" {
			return errors.New("canonical name is required for new action")
		}
		for kind := range c.NewEntity.Relationships {
			if !ValidRelationKind(kind) {
				return fmt.Errorf("unknown relationship kind: %s", kind)
			}
		}
	case ActionSkip:
	default:
		return fmt.Errorf("unknown action: %s", c.Action)
	}
	return nil
}
