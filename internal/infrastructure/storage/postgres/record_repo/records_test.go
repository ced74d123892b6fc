package record_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/erni27/imcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepform/internal/core/id"
	"stepform/internal/domain/document"
	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
)

func testStructure(t *testing.T) *structure.Structure {
	t.Helper()
	st, err := structure.New(structure.Config{
		Name:  "project",
		Table: "projects",
		Sections: []structure.Section{
			{
				Keyword: "general",
				Fields: []form.FieldSpec{
					{Name: "name", Storage: form.StorageColumn, Kind: form.KindText},
					{Name: "summary", Storage: form.StorageJSONScalar, Kind: form.KindText},
				},
			},
			{
				Keyword: "team",
				Fields: []form.FieldSpec{
					{
						Name:    "lead",
						Storage: form.StorageForeignKey,
						Rows:    &form.RowTemplate{Columns: []form.RowColumn{{Name: form.KeyToID}}},
						Link:    &form.LinkSpec{TargetTable: "people", Column: "lead_id"},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	return st
}

func TestBaseSelect_SQL(t *testing.T) {
	repo := New(nil)
	st := testStructure(t)

	sql, args, err := repo.baseSelect(st).Where(squirrel.Eq{"id": id.Nil()}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, data, to_jsonb(projects.*) - 'id' - 'data' AS columns FROM projects WHERE id = $1",
		sql)
	assert.Len(t, args, 1)
}

func TestToRecord_FiltersToDeclaredColumns(t *testing.T) {
	repo := New(nil)
	st := testStructure(t)

	recID := id.MustParse("0190a1b2-c3d4-7000-8000-000000000001")
	rec := repo.toRecord(st, recordRow{
		ID:   recID,
		Data: document.Document{"general": map[string]any{"summary": "x"}},
		Columns: document.Document{
			"name":       "Apollo",
			"lead_id":    "person-1",
			"created_at": "2026-01-01T00:00:00Z",
		},
	})

	assert.Equal(t, recID, rec.ID)
	// Only declared plain columns and single-link columns survive;
	// incidental table columns are not part of the record contract.
	assert.Equal(t, map[string]any{"name": "Apollo", "lead_id": "person-1"}, rec.Columns)
	assert.Equal(t, "x", rec.Data.Section("general")["summary"])
}

func TestMaxRowsKey(t *testing.T) {
	st := testStructure(t)
	assert.Equal(t, "project/planning/milestones", maxRowsKey(st, "planning", "milestones"))
}

func TestInvalidateMaxRows_OnlyRepeatingFields(t *testing.T) {
	repo := New(nil)
	st := testStructure(t)

	// No repeating fields declared: invalidation is a no-op and must not
	// touch unrelated cache keys.
	repo.maxRows.Set(maxRowsKey(st, "general", "summary"), 3, imcache.WithNoExpiration())
	repo.invalidateMaxRows(st)

	_, ok := repo.maxRows.Get(maxRowsKey(st, "general", "summary"))
	assert.True(t, ok)
}
