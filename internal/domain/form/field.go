// Package form provides typed field specifications for wizard sections and
// the mapping between submitted form values and the stored JSON document.
package form

import (
	"fmt"
	"strings"
	"time"
)

// PathValue is a write instruction addressing a location inside the nested
// JSON document: Path is the sequence of keys, Value the leaf to set.
type PathValue struct {
	Path  []string
	Value any
}

// Storage tags where a field's value lives. The mapper and the save
// reconciler dispatch on this tag.
type Storage string

const (
	// StorageColumn stores the value in a plain relational column.
	StorageColumn Storage = "column"

	// StorageJSONScalar stores the value at document[section][name].
	StorageJSONScalar Storage = "json_scalar"

	// StorageJSONRepeating stores a list of row objects at document[section][name].
	StorageJSONRepeating Storage = "json_repeating"

	// StorageForeignKey links to another record type, single- or many-valued.
	StorageForeignKey Storage = "foreign_key"

	// StorageThrough links to another record type via an explicit join row
	// carrying its own JSON payload.
	StorageThrough Storage = "through"
)

// Kind selects the value transformation applied by the PathValue codec.
type Kind string

const (
	KindText        Kind = "text"
	KindInteger     Kind = "integer"
	KindBoolean     Kind = "boolean"
	KindEmail       Kind = "email"
	KindChoice      Kind = "choice"
	KindMultiChoice Kind = "multichoice"
	KindDate        Kind = "date"
)

// DateLayout is the canonical string form for stored date values.
const DateLayout = "2006-01-02"

// Choice is one allowed option of a choice field: the stored code and its
// display label.
type Choice struct {
	Code  string
	Label string
}

// FieldSpec declares one typed field of a section.
type FieldSpec struct {
	Name    string
	Label   string
	Storage Storage
	Kind    Kind

	// Choices lists the allowed options for choice kinds.
	Choices []Choice

	// Rows is the row template for repeating, through and foreign-key fields.
	Rows *RowTemplate

	// Options configures repeating-row rendering.
	Options RowOptions

	// Through configures the join relation for StorageThrough fields.
	Through *ThroughSpec

	// Link configures the relation for StorageForeignKey fields.
	Link *LinkSpec
}

// ThroughSpec describes a many-valued relation materialized through an
// explicit join table whose rows carry their own JSON payload.
type ThroughSpec struct {
	// Table is the join table name.
	Table string

	// FromColumn references the owning record, ToColumn the target record.
	FromColumn string
	ToColumn   string

	// TargetTable is the related record type's table.
	TargetTable string
}

// LinkSpec describes a plain foreign-key relation.
type LinkSpec struct {
	// TargetTable is the related record type's table.
	TargetTable string

	// Many selects a many-valued relation via JoinTable; otherwise the
	// relation is a single Column on the record table.
	Many bool

	// Column holds the foreign-key column for single-valued links.
	Column string

	// JoinTable/FromColumn/ToColumn describe the plain join table for
	// many-valued links (no payload, replaced wholesale on save).
	JoinTable  string
	FromColumn string
	ToColumn   string
}

// IsJSONBacked reports whether the field writes into the JSON document.
func (f FieldSpec) IsJSONBacked() bool {
	return f.Storage == StorageJSONScalar || f.Storage == StorageJSONRepeating
}

// ToJSON converts a raw submitted value into a write instruction addressing
// document[section][name]. Scalar kinds pass the value through except:
//   - multi-choice: the token sequence is serialized as one comma-joined
//     string so the tabular report engine can consume it;
//   - date: serialized as its canonical string form, empty left as-is.
//
// Repeating fields store the compressed row list.
func (f FieldSpec) ToJSON(section string, value any) PathValue {
	path := []string{section, f.Name}

	if f.Storage == StorageJSONRepeating {
		return PathValue{Path: path, Value: f.Rows.Compress(AsList(value))}
	}

	switch f.Kind {
	case KindMultiChoice:
		return PathValue{Path: path, Value: joinTokens(value)}
	case KindDate:
		return PathValue{Path: path, Value: dateValue(value)}
	}
	return PathValue{Path: path, Value: value}
}

// FromJSON extracts the field's raw value out of a section slice of the
// document. Returns nil when the key (or the section) is missing. No type
// coercion happens on read; callers re-validate when redisplaying.
func (f FieldSpec) FromJSON(section map[string]any) any {
	if section == nil {
		return nil
	}
	return section[f.Name]
}

// joinTokens serializes a multi-choice token sequence as a single
// comma-joined string.
func joinTokens(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		tokens := make([]string, len(v))
		for i, t := range v {
			tokens[i] = asString(t)
		}
		return strings.Join(tokens, ",")
	default:
		return asString(v)
	}
}

// dateValue serializes date values; empty values stay empty.
func dateValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v.Format(DateLayout)
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		return v.Format(DateLayout)
	default:
		return value
	}
}

// AsList normalizes a submitted repeating value to a flat []any.
func AsList(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
