package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
)

func TestCodeRows(t *testing.T) {
	st, err := structure.New(structure.Config{
		Name:  "project",
		Table: "projects",
		Sections: []structure.Section{
			{
				Keyword: "general",
				Label:   "General",
				Fields: []form.FieldSpec{
					{Name: "name", Label: "Name", Storage: form.StorageColumn, Kind: form.KindText},
					{Name: "stage", Label: "Stage", Storage: form.StorageJSONScalar, Kind: form.KindChoice,
						Choices: []form.Choice{
							{Code: "", Label: "---------"},
							{Code: "draft", Label: "Draft"},
							{Code: "done", Label: "Done"},
						}},
				},
			},
			{
				Keyword: "details",
				Fields: []form.FieldSpec{
					{Name: "topics", Label: "Topics", Storage: form.StorageJSONScalar, Kind: form.KindMultiChoice,
						Choices: []form.Choice{
							{Code: "research", Label: "Research"},
						}},
				},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"Section", "Question", "Option", "Code"},
		// Placeholder options (empty code) never appear; a section
		// without a label falls back to its keyword.
		{"General", "Stage", "Draft", "draft"},
		{"General", "Stage", "Done", "done"},
		{"details", "Topics", "Research", "research"},
	}, codeRows(st))
}

func TestCodeRows_NoChoiceFields(t *testing.T) {
	st, err := structure.New(structure.Config{
		Name:  "person",
		Table: "people",
		Sections: []structure.Section{
			{
				Keyword: "profile",
				Fields: []form.FieldSpec{
					{Name: "name", Label: "Name", Storage: form.StorageColumn, Kind: form.KindText},
				},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Section", "Question", "Option", "Code"}}, codeRows(st))
}
