package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepform/internal/domain/document"
	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
)

// fakeProvider serves canned row counts keyed by section/field.
type fakeProvider struct {
	counts map[string]int
	err    error
}

func (f *fakeProvider) MaxRows(_ context.Context, _ *structure.Structure, keyword, field string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[keyword+"/"+field], nil
}

func reportStructure(t *testing.T) *structure.Structure {
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
					{Name: "stage", Storage: form.StorageJSONScalar, Kind: form.KindChoice},
				},
			},
			{
				Keyword: "planning",
				Fields: []form.FieldSpec{
					{
						Name:    "milestones",
						Storage: form.StorageJSONRepeating,
						Rows: &form.RowTemplate{Columns: []form.RowColumn{
							{Name: "title", Kind: form.KindText},
							{Name: "due", Kind: form.KindDate},
						}},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	return st
}

func TestRefresh_Names(t *testing.T) {
	provider := &fakeProvider{counts: map[string]int{"planning/milestones": 2}}
	s := NewSynthesizer(provider)
	st := reportStructure(t)

	s.Refresh(context.Background(), st)

	// One property per scalar, one per (sub-field, row index) pair; plain
	// columns synthesize nothing.
	assert.Equal(t, []string{
		"general_summary",
		"general_stage",
		"planning_milestones_title_0",
		"planning_milestones_due_0",
		"planning_milestones_title_1",
		"planning_milestones_due_1",
	}, s.Names(st.Name()))
}

func TestRefresh_ZeroRowsSynthesizesScalarsOnly(t *testing.T) {
	provider := &fakeProvider{counts: map[string]int{}}
	s := NewSynthesizer(provider)
	st := reportStructure(t)

	s.Refresh(context.Background(), st)

	assert.Equal(t, []string{"general_summary", "general_stage"}, s.Names(st.Name()))
}

func TestRefresh_ProviderErrorFallsBackToZero(t *testing.T) {
	provider := &fakeProvider{err: errors.New("relation does not exist")}
	s := NewSynthesizer(provider)
	st := reportStructure(t)

	s.Refresh(context.Background(), st)

	assert.Equal(t, []string{"general_summary", "general_stage"}, s.Names(st.Name()))
}

func TestRefresh_ReplacesPriorSet(t *testing.T) {
	provider := &fakeProvider{counts: map[string]int{"planning/milestones": 1}}
	s := NewSynthesizer(provider)
	st := reportStructure(t)

	s.Refresh(context.Background(), st)
	require.Len(t, s.Properties(st.Name()), 4)

	// A grown row count re-spawns the full set, never duplicates.
	provider.counts["planning/milestones"] = 2
	s.Refresh(context.Background(), st)
	assert.Len(t, s.Properties(st.Name()), 6)

	s.Refresh(context.Background(), st)
	assert.Len(t, s.Properties(st.Name()), 6)
}

func TestAccessors(t *testing.T) {
	provider := &fakeProvider{counts: map[string]int{"planning/milestones": 2}}
	s := NewSynthesizer(provider)
	st := reportStructure(t)
	s.Refresh(context.Background(), st)

	doc := document.Document{
		"general": map[string]any{"summary": "moonshot"},
		"planning": map[string]any{
			"milestones": []any{
				map[string]any{"title": "alpha", "due": "2026-01-01"},
			},
		},
	}

	byName := make(map[string]Property)
	for _, p := range s.Properties(st.Name()) {
		byName[p.Name] = p
	}

	assert.Equal(t, "moonshot", byName["general_summary"].Get(doc))
	assert.Equal(t, "alpha", byName["planning_milestones_title_0"].Get(doc))

	// A record with fewer rows than the structure-wide maximum reads empty
	// cells past its own length.
	assert.Equal(t, "", byName["planning_milestones_title_1"].Get(doc))

	// Absent documents read as empty strings everywhere.
	assert.Equal(t, "", byName["general_summary"].Get(nil))
	assert.Equal(t, "", byName["planning_milestones_due_0"].Get(nil))
}

func TestRefreshAll(t *testing.T) {
	provider := &fakeProvider{counts: map[string]int{}}
	s := NewSynthesizer(provider)

	registry := structure.NewRegistry()
	require.NoError(t, registry.Register(reportStructure(t)))

	s.RefreshAll(context.Background(), registry)
	assert.NotEmpty(t, s.Names("project"))
}
