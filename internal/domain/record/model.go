// Package record provides the generic persisted entity driven by a
// registered structure: a relational row with plain attributes, one nested
// JSON document, and relational associations.
package record

import (
	"stepform/internal/core/id"
	"stepform/internal/domain/document"
)

// Record is one stored row of a structure's table.
type Record struct {
	// ID is the primary key (UUIDv7).
	ID id.ID

	// Columns holds the plain relational attributes by column name,
	// limited to the columns the owning structure declares.
	Columns map[string]any

	// Data is the nested JSON document, keyed first by section keyword.
	Data document.Document
}
