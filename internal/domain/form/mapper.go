package form

import (
	"stepform/internal/core/apperror"
	"stepform/internal/domain/document"
)

// Values holds raw per-field submitted or display values keyed by field
// name. Repeating, through and foreign-key fields hold flat value lists.
type Values map[string]any

// ThroughRow is one live join row of a through relation.
type ThroughRow struct {
	ID   string
	ToID string
	Data document.Document
}

// View aggregates everything FromModel needs to rebuild form values for one
// stored record: its plain columns, its JSON document, and its live related
// rows keyed by field name.
type View struct {
	Columns map[string]any
	Doc     document.Document
	Through map[string][]ThroughRow
	Links   map[string][]string
}

// ToModel splits a submitted value set into relational-column assignments
// and JSON-document write instructions, dispatching on each field's Storage
// tag. Relation fields produce neither: their rows are reconciled
// separately (see ThroughFieldRows and LinkFieldIDs), but through rows are
// validated here so a row never silently records payload data without a
// selected target.
func ToModel(section string, fields []FieldSpec, values Values) (map[string]any, []PathValue, error) {
	columns := make(map[string]any)
	writes := make([]PathValue, 0, len(fields))

	for _, f := range fields {
		switch f.Storage {
		case StorageJSONScalar, StorageJSONRepeating:
			writes = append(writes, f.ToJSON(section, values[f.Name]))
		case StorageThrough:
			for _, row := range f.Rows.SplitLinkRows(AsList(values[f.Name])) {
				if row.ToID == "" && row.HasPayload() {
					return nil, nil, apperror.NewValidation("please select a valid link").
						WithDetail("field", f.Name)
				}
			}
		case StorageForeignKey:
			// reconciled against the relation itself, nothing to write here
		case StorageColumn:
			columns[f.Name] = values[f.Name]
		}
	}

	return columns, writes, nil
}

// ThroughFieldRows returns the submitted relation rows of a through field,
// compressed and split into (to_id, through_id, payload).
func ThroughFieldRows(f FieldSpec, values Values) []LinkRow {
	return f.Rows.SplitLinkRows(AsList(values[f.Name]))
}

// LinkFieldIDs returns the submitted target ids of a foreign-key field.
func LinkFieldIDs(f FieldSpec, values Values) []string {
	rows := f.Rows.SplitLinkRows(AsList(values[f.Name]))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.ToID != "" {
			ids = append(ids, r.ToID)
		}
	}
	return ids
}

// FromModel reconstructs form-ready values from a stored record view.
//
// Scalar JSON fields read via FromJSON against the record's section slice;
// when the record has no document yet the field is omitted so it renders
// empty. Repeating fields flatten each stored row back into the submission
// format (empty list when no document). Through fields emit one flattened
// row per live join row with to_id and through_id filled in and the
// remaining sub-values taken from the join row's payload. Foreign-key
// fields yield the related id list.
func FromModel(section string, fields []FieldSpec, view View) Values {
	values := make(Values, len(fields))

	for _, f := range fields {
		switch f.Storage {
		case StorageJSONScalar:
			if view.Doc != nil {
				values[f.Name] = f.FromJSON(view.Doc.Section(section))
			}
		case StorageJSONRepeating:
			if view.Doc == nil {
				values[f.Name] = []any{}
				continue
			}
			values[f.Name] = f.Rows.Flatten(view.Doc.Rows(section, f.Name))
		case StorageThrough:
			values[f.Name] = flattenThroughRows(f, view.Through[f.Name])
		case StorageForeignKey:
			values[f.Name] = view.Links[f.Name]
		case StorageColumn:
			values[f.Name] = view.Columns[f.Name]
		}
	}

	return values
}

// flattenThroughRows expands live join rows into the flat submission
// format, filling the reserved keys from the join row itself and the rest
// from its payload (nil for every non-reserved key when the payload is
// missing).
func flattenThroughRows(f FieldSpec, rows []ThroughRow) []any {
	flat := make([]any, 0, len(rows)*f.Rows.Len())
	for _, row := range rows {
		for _, col := range f.Rows.Columns {
			switch col.Name {
			case KeyToID:
				flat = append(flat, row.ToID)
			case KeyThroughID:
				flat = append(flat, row.ID)
			default:
				if row.Data == nil {
					flat = append(flat, nil)
					continue
				}
				flat = append(flat, row.Data[col.Name])
			}
		}
	}
	return flat
}
