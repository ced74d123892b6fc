// Package structure aggregates one record type's full set of sections: it
// validates section and field naming, supplies the ordered wizard steps,
// and anchors virtual-property synthesis.
package structure

import (
	"fmt"
	"strings"

	"stepform/internal/core/apperror"
	"stepform/internal/domain/form"
)

// DefaultDelimiter separates keyword and field name in virtual-property
// names and is therefore forbidden inside both.
const DefaultDelimiter = "_"

// Section is a named group of fields corresponding to one wizard step.
// A record's JSON document is keyed first by the section keyword.
type Section struct {
	Keyword string
	Label   string
	Fields  []form.FieldSpec
}

// DisplayLabel returns the label, falling back to the keyword.
func (s Section) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Keyword
}

// Field returns the named field spec.
func (s Section) Field(name string) (form.FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return form.FieldSpec{}, false
}

// Config declares a Structure.
type Config struct {
	// Name identifies the record type.
	Name string

	// Table is the record type's relational table.
	Table string

	// Delimiter is the reserved single character, default "_".
	Delimiter string

	// Sections in wizard order.
	Sections []Section
}

// Structure is the validated aggregate for one record type. Built once at
// process start and registered explicitly; immutable afterwards.
type Structure struct {
	name      string
	table     string
	delimiter string
	sections  []Section
	index     map[string]int
}

// Step describes one wizard step.
type Step struct {
	Keyword string `json:"keyword"`
	Label   string `json:"label"`
}

// New validates the declaration and builds a Structure. Invalid naming (the
// delimiter inside a section keyword or a JSON-backed field name), missing
// sections, or malformed relation specs are configuration errors raised
// before any form instance is constructed.
func New(cfg Config) (*Structure, error) {
	if cfg.Name == "" {
		return nil, apperror.NewConfiguration("structure requires a name")
	}
	if cfg.Table == "" {
		return nil, apperror.NewConfiguration("structure requires a table").
			WithDetail("structure", cfg.Name)
	}

	delimiter := cfg.Delimiter
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if len(delimiter) != 1 {
		return nil, apperror.NewConfiguration("delimiter must be a single character").
			WithDetail("delimiter", delimiter)
	}

	if len(cfg.Sections) == 0 {
		return nil, apperror.NewConfiguration("structure requires at least one section").
			WithDetail("structure", cfg.Name)
	}

	index := make(map[string]int, len(cfg.Sections))
	for i, sec := range cfg.Sections {
		if sec.Keyword == "" {
			return nil, apperror.NewConfiguration("section requires a keyword").
				WithDetail("structure", cfg.Name)
		}
		if strings.Contains(sec.Keyword, delimiter) {
			return nil, configNameError(cfg.Name, sec.Keyword, delimiter)
		}
		if _, dup := index[sec.Keyword]; dup {
			return nil, apperror.NewConfiguration("duplicate section keyword").
				WithDetail("structure", cfg.Name).
				WithDetail("keyword", sec.Keyword)
		}
		index[sec.Keyword] = i

		for _, f := range sec.Fields {
			if err := validateField(cfg.Name, sec.Keyword, f, delimiter); err != nil {
				return nil, err
			}
		}
	}

	return &Structure{
		name:      cfg.Name,
		table:     cfg.Table,
		delimiter: delimiter,
		sections:  cfg.Sections,
		index:     index,
	}, nil
}

// MustNew builds a Structure, panicking on configuration errors.
// Use for static declarations at process start.
func MustNew(cfg Config) *Structure {
	st, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return st
}

func validateField(structName, keyword string, f form.FieldSpec, delimiter string) error {
	if f.Name == "" {
		return apperror.NewConfiguration("field requires a name").
			WithDetail("structure", structName).
			WithDetail("section", keyword)
	}
	if f.IsJSONBacked() && strings.Contains(f.Name, delimiter) {
		return configNameError(structName, f.Name, delimiter)
	}

	switch f.Storage {
	case form.StorageJSONRepeating:
		if f.Rows.Len() == 0 {
			return apperror.NewConfiguration("repeating field requires a row template").
				WithDetail("field", f.Name)
		}
		for _, col := range f.Rows.Columns {
			if strings.Contains(col.Name, delimiter) {
				return configNameError(structName, col.Name, delimiter)
			}
		}
	case form.StorageThrough:
		if f.Through == nil || f.Through.Table == "" || f.Through.FromColumn == "" ||
			f.Through.ToColumn == "" || f.Through.TargetTable == "" {
			return apperror.NewConfiguration("through field requires a complete relation spec").
				WithDetail("field", f.Name)
		}
		if err := requireReservedKeys(f, true); err != nil {
			return err
		}
	case form.StorageForeignKey:
		if f.Link == nil || f.Link.TargetTable == "" {
			return apperror.NewConfiguration("foreign-key field requires a link spec").
				WithDetail("field", f.Name)
		}
		if f.Link.Many && (f.Link.JoinTable == "" || f.Link.FromColumn == "" || f.Link.ToColumn == "") {
			return apperror.NewConfiguration("many-valued link requires a join table spec").
				WithDetail("field", f.Name)
		}
		if !f.Link.Many && f.Link.Column == "" {
			return apperror.NewConfiguration("single-valued link requires a column").
				WithDetail("field", f.Name)
		}
		if err := requireReservedKeys(f, false); err != nil {
			return err
		}
	}
	return nil
}

// requireReservedKeys checks that a relation row template carries the
// reserved to_id (and, for through relations, through_id) sub-fields.
func requireReservedKeys(f form.FieldSpec, through bool) error {
	has := func(key string) bool {
		if f.Rows == nil {
			return false
		}
		for _, col := range f.Rows.Columns {
			if col.Name == key {
				return true
			}
		}
		return false
	}
	if !has(form.KeyToID) {
		return apperror.NewConfiguration(fmt.Sprintf("relation row template requires %q", form.KeyToID)).
			WithDetail("field", f.Name)
	}
	if through && !has(form.KeyThroughID) {
		return apperror.NewConfiguration(fmt.Sprintf("through row template requires %q", form.KeyThroughID)).
			WithDetail("field", f.Name)
	}
	return nil
}

func configNameError(structName, value, delimiter string) *apperror.AppError {
	return apperror.NewConfiguration(fmt.Sprintf("no %q allowed in name %q", delimiter, value)).
		WithDetail("structure", structName)
}

// Name identifies the record type.
func (st *Structure) Name() string { return st.name }

// Table is the record type's relational table.
func (st *Structure) Table() string { return st.table }

// Delimiter is the reserved character used for virtual-property names.
func (st *Structure) Delimiter() string { return st.delimiter }

// Sections returns the sections in wizard order.
func (st *Structure) Sections() []Section { return st.sections }

// Section returns the section with the given keyword.
func (st *Structure) Section(keyword string) (Section, bool) {
	i, ok := st.index[keyword]
	if !ok {
		return Section{}, false
	}
	return st.sections[i], true
}

// Steps returns the ordered labelled wizard steps.
func (st *Structure) Steps() []Step {
	steps := make([]Step, len(st.sections))
	for i, sec := range st.sections {
		steps[i] = Step{Keyword: sec.Keyword, Label: sec.DisplayLabel()}
	}
	return steps
}

// FirstStep returns the first section keyword.
func (st *Structure) FirstStep() string {
	return st.sections[0].Keyword
}

// NextStep returns the keyword following the given step, or "" on the last.
func (st *Structure) NextStep(keyword string) string {
	i, ok := st.index[keyword]
	if !ok || i+1 >= len(st.sections) {
		return ""
	}
	return st.sections[i+1].Keyword
}

// PrevStep returns the keyword preceding the given step, or "" on the first.
func (st *Structure) PrevStep(keyword string) string {
	i, ok := st.index[keyword]
	if !ok || i == 0 {
		return ""
	}
	return st.sections[i-1].Keyword
}

// ColumnFields returns all column-backed field names across sections,
// used by repositories to select the record's plain attributes.
func (st *Structure) ColumnFields() []string {
	var cols []string
	for _, sec := range st.sections {
		for _, f := range sec.Fields {
			if f.Storage == form.StorageColumn {
				cols = append(cols, f.Name)
			}
		}
	}
	return cols
}

// SingleLinkColumns returns the foreign-key columns held directly on the
// record table (single-valued links), used by repositories.
func (st *Structure) SingleLinkColumns() []string {
	var cols []string
	for _, sec := range st.sections {
		for _, f := range sec.Fields {
			if f.Storage == form.StorageForeignKey && f.Link != nil && !f.Link.Many {
				cols = append(cols, f.Link.Column)
			}
		}
	}
	return cols
}
