package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepform/internal/core/apperror"
	"stepform/internal/domain/document"
)

func generalFields() []FieldSpec {
	return []FieldSpec{
		{Name: "name", Storage: StorageColumn, Kind: KindText},
		{Name: "summary", Storage: StorageJSONScalar, Kind: KindText},
		{Name: "topics", Storage: StorageJSONScalar, Kind: KindMultiChoice},
	}
}

func membersField() FieldSpec {
	return FieldSpec{
		Name:    "members",
		Storage: StorageThrough,
		Rows: &RowTemplate{Columns: []RowColumn{
			{Name: KeyToID, Hidden: true},
			{Name: KeyThroughID, Hidden: true},
			{Name: "role", Kind: KindText},
		}},
		Through: &ThroughSpec{
			Table:       "project_members",
			FromColumn:  "project_id",
			ToColumn:    "person_id",
			TargetTable: "people",
		},
	}
}

func TestToModel_SplitsColumnsAndWrites(t *testing.T) {
	columns, writes, err := ToModel("general", generalFields(), Values{
		"name":    "Apollo",
		"summary": "moonshot",
		"topics":  []string{"research", "outreach"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "Apollo"}, columns)
	require.Len(t, writes, 2)
	assert.Equal(t, []string{"general", "summary"}, writes[0].Path)
	assert.Equal(t, "moonshot", writes[0].Value)
	assert.Equal(t, []string{"general", "topics"}, writes[1].Path)
	assert.Equal(t, "research,outreach", writes[1].Value)
}

func TestToModel_ThroughRowWithoutTarget(t *testing.T) {
	fields := []FieldSpec{membersField()}

	// Payload without a selected target is a validation error.
	_, _, err := ToModel("team", fields, Values{
		"members": []any{"", "", "editor"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	// An all-empty row is simply dropped, not an error.
	_, writes, err := ToModel("team", fields, Values{
		"members": []any{"", "", ""},
	})
	require.NoError(t, err)
	assert.Empty(t, writes)
}

func TestToModel_RelationsProduceNoWrites(t *testing.T) {
	fields := []FieldSpec{
		membersField(),
		{
			Name:    "lead",
			Storage: StorageForeignKey,
			Rows:    &RowTemplate{Columns: []RowColumn{{Name: KeyToID}}},
			Link:    &LinkSpec{TargetTable: "people", Column: "lead_id"},
		},
	}

	columns, writes, err := ToModel("team", fields, Values{
		"members": []any{"target-1", "", "editor"},
		"lead":    []any{"target-2"},
	})
	require.NoError(t, err)
	assert.Empty(t, columns)
	assert.Empty(t, writes)
}

func TestFromModel_NoDocument(t *testing.T) {
	fields := []FieldSpec{
		{Name: "summary", Storage: StorageJSONScalar, Kind: KindText},
		{Name: "milestones", Storage: StorageJSONRepeating,
			Rows: &RowTemplate{Columns: []RowColumn{{Name: "title"}}}},
	}

	values := FromModel("general", fields, View{})

	// Scalars are omitted so they render empty; repeating fields come back
	// as an empty list.
	_, present := values["summary"]
	assert.False(t, present)
	assert.Equal(t, []any{}, values["milestones"])
}

func TestFromModel_RoundTrip(t *testing.T) {
	fields := []FieldSpec{
		{Name: "name", Storage: StorageColumn, Kind: KindText},
		{Name: "summary", Storage: StorageJSONScalar, Kind: KindText},
		{Name: "milestones", Storage: StorageJSONRepeating,
			Rows: &RowTemplate{Columns: []RowColumn{{Name: "title"}, {Name: "due"}}}},
	}

	view := View{
		Columns: map[string]any{"name": "Apollo"},
		Doc: document.Document{
			"general": map[string]any{
				"summary": "moonshot",
				"milestones": []any{
					map[string]any{"title": "alpha", "due": "2026-01-01"},
				},
			},
		},
	}

	values := FromModel("general", fields, view)

	assert.Equal(t, "Apollo", values["name"])
	assert.Equal(t, "moonshot", values["summary"])
	assert.Equal(t, []any{"alpha", "2026-01-01"}, values["milestones"])
}

func TestFromModel_ThroughAndLinks(t *testing.T) {
	fields := []FieldSpec{
		membersField(),
		{
			Name:    "tags",
			Storage: StorageForeignKey,
			Rows:    &RowTemplate{Columns: []RowColumn{{Name: KeyToID}}},
			Link:    &LinkSpec{TargetTable: "tags", Many: true, JoinTable: "project_tags", FromColumn: "project_id", ToColumn: "tag_id"},
		},
	}

	view := View{
		Through: map[string][]ThroughRow{
			"members": {
				{ID: "join-1", ToID: "person-1", Data: document.Document{"role": "editor"}},
				{ID: "join-2", ToID: "person-2", Data: nil},
			},
		},
		Links: map[string][]string{
			"tags": {"tag-1", "tag-2"},
		},
	}

	values := FromModel("team", fields, view)

	assert.Equal(t, []any{
		"person-1", "join-1", "editor",
		"person-2", "join-2", nil,
	}, values["members"])
	assert.Equal(t, []string{"tag-1", "tag-2"}, values["tags"])
}

func TestThroughFieldRows(t *testing.T) {
	rows := ThroughFieldRows(membersField(), Values{
		"members": []any{"person-1", "join-1", "editor"},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "person-1", rows[0].ToID)
	assert.Equal(t, "join-1", rows[0].ThroughID)
	assert.Equal(t, map[string]any{"role": "editor"}, rows[0].Payload)
}

func TestLinkFieldIDs_SkipsUnselected(t *testing.T) {
	f := FieldSpec{
		Name:    "tags",
		Storage: StorageForeignKey,
		Rows:    &RowTemplate{Columns: []RowColumn{{Name: KeyToID}}},
		Link:    &LinkSpec{TargetTable: "tags"},
	}

	ids := LinkFieldIDs(f, Values{"tags": []any{"tag-1", "", "tag-2"}})
	assert.Equal(t, []string{"tag-1", "tag-2"}, ids)
}
