package form

// Reserved sub-field keys carried by relation row templates. Both are
// stripped from the row before it is treated as the link's JSON payload.
const (
	// KeyToID holds the target record id of a relation row.
	KeyToID = "to_id"

	// KeyThroughID holds the id of the existing join row; empty for new rows.
	KeyThroughID = "through_id"
)

// RowColumn is one sub-field of a repeating row template.
type RowColumn struct {
	Name   string
	Label  string
	Kind   Kind
	Hidden bool
}

// RowTemplate is the ordered sub-field mapping of a repeating field,
// replicated N times to build the submitted flat value list.
type RowTemplate struct {
	Columns []RowColumn
}

// RowOptions configures repeating-row rendering.
type RowOptions struct {
	Label    string
	MinRows  int // floor for rendered rows, default 1
	MaxRows  int // cap for rendered rows, default 10000
	Disabled bool
}

func (o RowOptions) minRows() int {
	if o.MinRows <= 0 {
		return 1
	}
	return o.MinRows
}

func (o RowOptions) maxRows() int {
	if o.MaxRows <= 0 {
		return 10000
	}
	return o.MaxRows
}

// Len returns the template cardinality (values per row).
func (t *RowTemplate) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Compress partitions a flat ordered value list into consecutive chunks of
// template size and zips each chunk against the sub-field names, turning
// the submitted values into the format in which rows are stored. Rows whose
// every value is empty-string or nil are omitted; relative order of the
// surviving rows is preserved.
//
// A trailing chunk shorter than the template is dropped: callers must
// guarantee the flat length is a multiple of the template size, otherwise
// the trailing values are lost.
func (t *RowTemplate) Compress(flat []any) []any {
	k := t.Len()
	if k == 0 {
		return []any{}
	}

	rows := make([]any, 0, len(flat)/k)
	for i := 0; i+k <= len(flat); i += k {
		chunk := flat[i : i+k]
		if rowEmpty(chunk) {
			continue
		}
		row := make(map[string]any, k)
		for j, col := range t.Columns {
			row[col.Name] = chunk[j]
		}
		rows = append(rows, row)
	}
	return rows
}

// Flatten expands stored row objects back into the flat submission format:
// each row yields exactly one value per sub-field in template order, rows
// concatenated in storage order. Missing keys yield nil.
func (t *RowTemplate) Flatten(rows []any) []any {
	flat := make([]any, 0, len(rows)*t.Len())
	for _, r := range rows {
		rowMap, _ := r.(map[string]any)
		for _, col := range t.Columns {
			if rowMap == nil {
				flat = append(flat, nil)
				continue
			}
			flat = append(flat, rowMap[col.Name])
		}
	}
	return flat
}

// LinkRow is one compressed relation row split into its target id, the
// existing join-row id, and the remaining JSON payload.
type LinkRow struct {
	ToID      string
	ThroughID string
	Payload   map[string]any
}

// SplitLinkRows compresses a flat relation value list and separates the
// reserved to_id/through_id keys from each row's payload.
func (t *RowTemplate) SplitLinkRows(flat []any) []LinkRow {
	compressed := t.Compress(flat)
	rows := make([]LinkRow, 0, len(compressed))
	for _, r := range compressed {
		row := r.(map[string]any)
		lr := LinkRow{
			ToID:      asString(row[KeyToID]),
			ThroughID: asString(row[KeyThroughID]),
		}
		delete(row, KeyToID)
		delete(row, KeyThroughID)
		lr.Payload = row
		rows = append(rows, lr)
	}
	return rows
}

// HasPayload reports whether any payload value is non-empty.
func (r LinkRow) HasPayload() bool {
	for _, v := range r.Payload {
		if v != nil && v != "" {
			return true
		}
	}
	return false
}

// RenderRowCount calculates the number of rows a form should render for a
// repeating field. Read-only forms always show at least one row and never
// auto-add. Editable forms show one extra trailing empty row unless the
// configured maximum is reached. A submission's row count takes precedence
// over stored values, and the result never drops below the configured floor.
func RenderRowCount(opts RowOptions, submittedRows, storedRows int, hasSubmission, readonly bool) int {
	readonly = readonly || opts.Disabled

	shown := 0
	if readonly {
		shown = 1
	}

	if hasSubmission {
		if submittedRows > shown {
			shown = submittedRows
		}
	} else {
		if storedRows > shown {
			shown = storedRows
		}
		if !readonly && shown < opts.maxRows() {
			shown++
		}
	}

	if min := opts.minRows(); shown < min {
		shown = min
	}
	return shown
}

func rowEmpty(chunk []any) bool {
	for _, c := range chunk {
		if c != nil && c != "" {
			return false
		}
	}
	return true
}
