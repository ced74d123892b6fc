package dto

import (
	"stepform/internal/domain/form"
	"stepform/internal/domain/record"
	"stepform/internal/domain/structure"
)

// --- Structure metadata ---

// StepInfo describes one wizard step.
type StepInfo struct {
	Keyword string `json:"keyword"`
	Label   string `json:"label"`
}

// StructureResponse describes a registered structure and its step order.
type StructureResponse struct {
	Name  string     `json:"name"`
	Steps []StepInfo `json:"steps"`
}

// FromStructure creates StructureResponse from a structure.
func FromStructure(st *structure.Structure) StructureResponse {
	steps := make([]StepInfo, 0, len(st.Steps()))
	for _, s := range st.Steps() {
		steps = append(steps, StepInfo{Keyword: s.Keyword, Label: s.Label})
	}
	return StructureResponse{
		Name:  st.Name(),
		Steps: steps,
	}
}

// --- Step form ---

// ChoiceResponse is one allowed option of a choice field.
type ChoiceResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// RowColumnResponse describes one column of a repeating-row template.
type RowColumnResponse struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Kind   string `json:"kind"`
	Hidden bool   `json:"hidden,omitempty"`
}

// FieldResponse describes one form field of a step, with enough metadata
// for a client to render it: kind, choices and, for repeating fields, the
// row template plus the number of rows to draw.
type FieldResponse struct {
	Name     string              `json:"name"`
	Label    string              `json:"label"`
	Storage  string              `json:"storage"`
	Kind     string              `json:"kind,omitempty"`
	Choices  []ChoiceResponse    `json:"choices,omitempty"`
	Columns  []RowColumnResponse `json:"columns,omitempty"`
	RowCount int                 `json:"rowCount,omitempty"`
	RowLabel string              `json:"rowLabel,omitempty"`
	Disabled bool                `json:"disabled,omitempty"`
}

// StepResponse is one rendered wizard step: metadata about the step's
// position plus the field descriptions and current form values.
type StepResponse struct {
	Structure string          `json:"structure"`
	Step      string          `json:"step"`
	Label     string          `json:"label"`
	Index     int             `json:"index"`
	Count     int             `json:"count"`
	Prev      string          `json:"prev,omitempty"`
	Next      string          `json:"next,omitempty"`
	RecordID  string          `json:"recordId,omitempty"`
	Fields    []FieldResponse `json:"fields"`
	Values    map[string]any  `json:"values"`
}

// SubmitStepRequest is the body of a step submission. LoadStep re-renders
// the current step from the submitted values without persisting or
// advancing (used when the client changes a repeating field's row count).
type SubmitStepRequest struct {
	Values   map[string]any `json:"values"`
	LoadStep bool           `json:"loadStep"`
}

// SubmitStepResponse reports the persistence outcome and where the wizard
// goes next.
type SubmitStepResponse struct {
	RecordID string `json:"recordId"`
	Saved    bool   `json:"saved"`
	Next     string `json:"next,omitempty"`
	Done     bool   `json:"done"`
}

// --- Records ---

// RecordResponse is one stored record.
type RecordResponse struct {
	ID      string         `json:"id"`
	Columns map[string]any `json:"columns"`
	Data    map[string]any `json:"data,omitempty"`
}

// FromRecord creates RecordResponse from a record.
func FromRecord(rec *record.Record) RecordResponse {
	return RecordResponse{
		ID:      rec.ID.String(),
		Columns: rec.Columns,
		Data:    rec.Data,
	}
}

// FromRecords converts a record list.
func FromRecords(recs []*record.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return out
}

// FieldResponses builds field descriptions for one section. rowCounts maps
// repeating field names to the number of rows the client should render.
func FieldResponses(fields []form.FieldSpec, rowCounts map[string]int) []FieldResponse {
	out := make([]FieldResponse, 0, len(fields))
	for _, f := range fields {
		fr := FieldResponse{
			Name:    f.Name,
			Label:   f.Label,
			Storage: string(f.Storage),
			Kind:    string(f.Kind),
		}
		for _, ch := range f.Choices {
			fr.Choices = append(fr.Choices, ChoiceResponse{Code: ch.Code, Label: ch.Label})
		}
		if f.Rows != nil {
			for _, col := range f.Rows.Columns {
				fr.Columns = append(fr.Columns, RowColumnResponse{
					Name:   col.Name,
					Label:  col.Label,
					Kind:   string(col.Kind),
					Hidden: col.Hidden,
				})
			}
			fr.RowCount = rowCounts[f.Name]
			fr.RowLabel = f.Options.Label
			fr.Disabled = f.Options.Disabled
		}
		out = append(out, fr)
	}
	return out
}
