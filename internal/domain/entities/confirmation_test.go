package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmationValidate(t *testing.T) {
	tests := []struct {
		name         string
		confirmation EntityConfirmation
		wantErr      string
	}{
		{
			name: "valid link",
			confirmation: EntityConfirmation{
				MentionText:    "Caro",
				Action:         ActionLink,
				LinkedEntityID: "id-1",
			},
		},
		{
			name: "link without entity id",
			confirmation: EntityConfirmation{
				MentionText: "Caro",
				Action:      ActionLink,
			},
			wantErr: "linked entity id is required",
		},
		{
			name: "valid new",
			confirmation: EntityConfirmation{
				MentionText: "Kevin",
				Action:      ActionNew,
				NewEntity:   &NewEntityData{CanonicalName: "Kevin"},
			},
		},
		{
			name: "new without canonical name",
			confirmation: EntityConfirmation{
				MentionText: "Kevin",
				Action:      ActionNew,
				NewEntity:   &NewEntityData{},
			},
			wantErr: "canonical name is required",
		},
		{
			name: "new with unknown relationship kind",
			confirmation: EntityConfirmation{
				MentionText: "Kevin",
				Action:      ActionNew,
				NewEntity: &NewEntityData{
					CanonicalName: "Kevin",
					Relationships: map[RelationKind][]string{"nemesis": {"Tom"}},
				},
			},
			wantErr: "unknown relationship kind",
		},
		{
			name: "valid skip",
			confirmation: EntityConfirmation{
				MentionText: "Tom",
				Action:      ActionSkip,
			},
		},
		{
			name: "missing mention text",
			confirmation: EntityConfirmation{
				Action: ActionSkip,
			},
			wantErr: "mention text is required",
		},
		{
			name: "unknown action",
			confirmation: EntityConfirmation{
				MentionText: "Tom",
				Action:      "maybe",
			},
			wantErr: "unknown action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.confirmation.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
