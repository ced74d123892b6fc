// Package report synthesizes read-only virtual properties over a record
// type's JSON document. The synthesized names form the stable column-name
// contract consumed by the tabular export surface, which cannot handle
// nested data or absent cells.
package report

import (
	"context"
	"fmt"
	"sync"

	"stepform/internal/domain/document"
	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
	"stepform/pkg/logger"
)

// Property is one synthesized read-only computed attribute: a deterministic
// name and an accessor over the record's document. Accessors never fail;
// absent documents, keys or indexes yield the empty string.
type Property struct {
	Name string
	Get  func(doc document.Document) string
}

// MaxRowsProvider supplies the maximum stored row count of a repeating
// field across all existing records of a structure. Implementations should
// treat this as an expensive full-table scan and cache accordingly.
type MaxRowsProvider interface {
	MaxRows(ctx context.Context, st *structure.Structure, keyword, field string) (int, error)
}

// Synthesizer derives and registers virtual properties per structure.
// Resynthesis atomically replaces the prior property list; reads are
// concurrent. Must be re-run after every record save, since repeating-row
// counts can grow.
type Synthesizer struct {
	mu       sync.RWMutex
	provider MaxRowsProvider
	props    map[string][]Property
}

// NewSynthesizer creates a Synthesizer backed by the given row-count
// provider.
func NewSynthesizer(provider MaxRowsProvider) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		props:    make(map[string][]Property),
	}
}

// Refresh re-derives the full property set for one structure and replaces
// the registered list atomically. One property is created per JSON-backed
// scalar field, and one per (repeating field, sub-field, row index)
// combination up to the observed maximum row count.
//
// Row-count scan failures (empty table, schema not ready) fall back to
// zero rows; they are recovered here and never surface to callers.
func (s *Synthesizer) Refresh(ctx context.Context, st *structure.Structure) {
	var props []Property

	for _, sec := range st.Sections() {
		for _, f := range sec.Fields {
			switch f.Storage {
			case form.StorageJSONScalar:
				props = append(props, s.scalarProperty(st, sec.Keyword, f))
			case form.StorageJSONRepeating:
				props = append(props, s.repeatingProperties(ctx, st, sec.Keyword, f)...)
			}
		}
	}

	s.mu.Lock()
	s.props[st.Name()] = props
	s.mu.Unlock()
}

// RefreshAll resynthesizes every registered structure, used at process
// start to spawn the initial property sets.
func (s *Synthesizer) RefreshAll(ctx context.Context, registry *structure.Registry) {
	for _, st := range registry.List() {
		s.Refresh(ctx, st)
	}
}

// scalarProperty reads document[keyword][field] as a string. A record
// without a document yields the empty string rather than an absent value,
// so the export surface always has a cell to emit.
func (s *Synthesizer) scalarProperty(st *structure.Structure, keyword string, f form.FieldSpec) Property {
	return Property{
		Name: keyword + st.Delimiter() + f.Name,
		Get: func(doc document.Document) string {
			if doc == nil {
				return ""
			}
			return document.Stringify(f.FromJSON(doc.Section(keyword)))
		},
	}
}

// repeatingProperties explodes a repeating field into one property per
// (sub-field, row index) pair. The number of rows is defined by the longest
// stored row list across all existing records.
func (s *Synthesizer) repeatingProperties(ctx context.Context, st *structure.Structure, keyword string, f form.FieldSpec) []Property {
	maxRows, err := s.provider.MaxRows(ctx, st, keyword, f.Name)
	if err != nil {
		logger.Warn(ctx, "max rows scan failed, assuming empty",
			"structure", st.Name(),
			"section", keyword,
			"field", f.Name,
			"error", err,
		)
		maxRows = 0
	}

	props := make([]Property, 0, maxRows*f.Rows.Len())
	for i := 0; i < maxRows; i++ {
		for _, col := range f.Rows.Columns {
			row, colName := i, col.Name
			props = append(props, Property{
				Name: fmt.Sprintf("%s_%s_%s_%d", keyword, f.Name, colName, row),
				Get: func(doc document.Document) string {
					return doc.CellString(keyword, f.Name, row, colName)
				},
			})
		}
	}
	return props
}

// Properties returns the registered property list of a structure in
// synthesis order.
func (s *Synthesizer) Properties(structName string) []Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.props[structName]
}

// Names returns the registered property names of a structure, forming the
// export column-header contract.
func (s *Synthesizer) Names(structName string) []string {
	props := s.Properties(structName)
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}
