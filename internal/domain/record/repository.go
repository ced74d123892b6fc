package record

import (
	"context"

	"stepform/internal/core/id"
	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
)

// Repository defines persistence for records and their relations.
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
type Repository interface {
	// Get retrieves one record with its plain columns and document.
	Get(ctx context.Context, st *structure.Structure, recordID id.ID) (*Record, error)

	// List retrieves all records of the structure's table in id order.
	List(ctx context.Context, st *structure.Structure) ([]*Record, error)

	// Save creates-or-updates the record's plain columns by primary key
	// (creates when recordID is nil or matches nothing), then merges each
	// write into the existing document along its path, preserving sibling
	// keys, and persists the merged document.
	Save(ctx context.Context, st *structure.Structure, recordID *id.ID, columns map[string]any, writes []form.PathValue) (*Record, error)

	// Delete removes the record and every relation row referencing it
	// (through rows and many-valued link rows).
	Delete(ctx context.Context, st *structure.Structure, recordID id.ID) error

	// ThroughRows lists the live join rows of a through relation for one
	// record, in natural relation order.
	ThroughRows(ctx context.Context, spec form.ThroughSpec, fromID id.ID) ([]form.ThroughRow, error)

	// ApplyThroughPlan executes a reconciliation plan against the join table.
	ApplyThroughPlan(ctx context.Context, spec form.ThroughSpec, fromID id.ID, plan ThroughPlan) error

	// LinkedIDs returns the related ids of a foreign-key field for one
	// record: zero-or-one element for single-valued links, all related ids
	// in natural order for many-valued links.
	LinkedIDs(ctx context.Context, st *structure.Structure, spec form.LinkSpec, rec *Record) ([]string, error)

	// ResolveIDs resolves submitted raw ids against the target table,
	// silently dropping every id that does not parse or does not exist.
	ResolveIDs(ctx context.Context, table string, raw []string) ([]id.ID, error)

	// SetLink sets a single-valued foreign-key column (nil clears it).
	SetLink(ctx context.Context, st *structure.Structure, spec form.LinkSpec, fromID id.ID, toID *id.ID) error

	// ReplaceLinks replaces a many-valued link set wholesale.
	ReplaceLinks(ctx context.Context, spec form.LinkSpec, fromID id.ID, toIDs []id.ID) error
}
