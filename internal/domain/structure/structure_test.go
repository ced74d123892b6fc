package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepform/internal/core/apperror"
	"stepform/internal/domain/form"
)

func projectConfig() Config {
	return Config{
		Name:  "project",
		Table: "projects",
		Sections: []Section{
			{
				Keyword: "general",
				Label:   "General",
				Fields: []form.FieldSpec{
					{Name: "name", Storage: form.StorageColumn, Kind: form.KindText},
					{Name: "summary", Storage: form.StorageJSONScalar, Kind: form.KindText},
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
						}},
					},
				},
			},
		},
	}
}

func TestNew_Valid(t *testing.T) {
	st, err := New(projectConfig())
	require.NoError(t, err)

	assert.Equal(t, "project", st.Name())
	assert.Equal(t, "projects", st.Table())
	assert.Equal(t, DefaultDelimiter, st.Delimiter())
	assert.Len(t, st.Sections(), 2)
}

func TestNew_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing name",
			mutate: func(c *Config) { c.Name = "" },
		},
		{
			name:   "missing table",
			mutate: func(c *Config) { c.Table = "" },
		},
		{
			name:   "no sections",
			mutate: func(c *Config) { c.Sections = nil },
		},
		{
			name:   "multi-character delimiter",
			mutate: func(c *Config) { c.Delimiter = "--" },
		},
		{
			name:   "delimiter inside section keyword",
			mutate: func(c *Config) { c.Sections[0].Keyword = "gen_eral" },
		},
		{
			name:   "duplicate section keyword",
			mutate: func(c *Config) { c.Sections[1].Keyword = "general" },
		},
		{
			name:   "delimiter inside json field name",
			mutate: func(c *Config) { c.Sections[0].Fields[1].Name = "sum_mary" },
		},
		{
			name:   "delimiter inside row column name",
			mutate: func(c *Config) { c.Sections[1].Fields[0].Rows.Columns[0].Name = "ti_tle" },
		},
		{
			name: "repeating field without template",
			mutate: func(c *Config) {
				c.Sections[1].Fields[0].Rows = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := projectConfig()
			tt.mutate(&cfg)

			// Rejected at declaration time, before anything is stored.
			_, err := New(cfg)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeConfiguration, appErr.Code)
		})
	}
}

func TestNew_ColumnFieldMayContainDelimiter(t *testing.T) {
	cfg := projectConfig()
	cfg.Sections[0].Fields[0].Name = "display_name"

	// The naming rule protects property parsing, which only involves
	// JSON-backed fields; plain columns are exempt.
	_, err := New(cfg)
	assert.NoError(t, err)
}

func TestNew_ThroughFieldRequiresReservedKeys(t *testing.T) {
	cfg := projectConfig()
	cfg.Sections[0].Fields = append(cfg.Sections[0].Fields, form.FieldSpec{
		Name:    "members",
		Storage: form.StorageThrough,
		Rows: &form.RowTemplate{Columns: []form.RowColumn{
			{Name: form.KeyToID},
			{Name: "role"},
		}},
		Through: &form.ThroughSpec{
			Table: "project_members", FromColumn: "project_id",
			ToColumn: "person_id", TargetTable: "people",
		},
	})

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), form.KeyThroughID)
}

func TestSteps_Navigation(t *testing.T) {
	st := MustNew(projectConfig())

	steps := st.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "general", steps[0].Keyword)
	assert.Equal(t, "General", steps[0].Label)

	assert.Equal(t, "general", st.FirstStep())
	assert.Equal(t, "planning", st.NextStep("general"))
	assert.Equal(t, "", st.NextStep("planning"))
	assert.Equal(t, "", st.PrevStep("general"))
	assert.Equal(t, "general", st.PrevStep("planning"))
}

func TestColumnFields(t *testing.T) {
	st := MustNew(projectConfig())
	assert.Equal(t, []string{"name"}, st.ColumnFields())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	st := MustNew(projectConfig())

	require.NoError(t, reg.Register(st))

	got, ok := reg.Get("project")
	require.True(t, ok)
	assert.Same(t, st, got)

	// Double registration is a configuration error.
	err := reg.Register(st)
	require.Error(t, err)

	list := reg.List()
	require.Len(t, list, 1)
	assert.Same(t, st, list[0])
}

func TestRegistry_MustGetPanics(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() { reg.MustGet("missing") })
}
