package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stepform/internal/core/id"
	"stepform/internal/domain/document"
	"stepform/internal/domain/form"
	"stepform/internal/domain/record"
	"stepform/internal/domain/structure"
)

// throughJoinRow is the scan target for through-relation join rows.
type throughJoinRow struct {
	ID   id.ID             `db:"id"`
	ToID id.ID             `db:"to_id"`
	Data document.Document `db:"data"`
}

// ThroughRows lists the live join rows of a through relation for one
// record, in id order.
func (r *RecordRepo) ThroughRows(ctx context.Context, spec form.ThroughSpec, fromID id.ID) ([]form.ThroughRow, error) {
	q := r.Builder().
		Select("id", spec.ToColumn+" AS to_id", "data").
		From(spec.Table).
		Where(squirrel.Eq{spec.FromColumn: fromID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []throughJoinRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("through rows %s: %w", spec.Table, err)
	}

	result := make([]form.ThroughRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, form.ThroughRow{
			ID:   row.ID.String(),
			ToID: row.ToID.String(),
			Data: row.Data,
		})
	}
	return result, nil
}

// ApplyThroughPlan executes a reconciliation plan against the join table:
// surviving rows get their payload replaced, new rows are inserted, and
// rows absent from the submission are deleted.
func (r *RecordRepo) ApplyThroughPlan(ctx context.Context, spec form.ThroughSpec, fromID id.ID, plan record.ThroughPlan) error {
	querier := r.querier(ctx)

	for _, u := range plan.Updates {
		rowID, err := id.Parse(u.ID)
		if err != nil {
			continue
		}

		q := r.Builder().
			Update(spec.Table).
			Set("data", document.Document(u.Payload)).
			Where(squirrel.Eq{"id": rowID})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("update %s: %w", spec.Table, err)
		}
	}

	for _, c := range plan.Creates {
		toID, err := id.Parse(c.ToID)
		if err != nil {
			// Unresolvable target, drop the row.
			continue
		}

		q := r.Builder().
			Insert(spec.Table).
			SetMap(map[string]any{
				"id":            id.New(),
				spec.FromColumn: fromID,
				spec.ToColumn:   toID,
				"data":          document.Document(c.Payload),
			})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert %s: %w", spec.Table, err)
		}
	}

	deleteIDs := make([]id.ID, 0, len(plan.Deletes))
	for _, raw := range plan.Deletes {
		rowID, err := id.Parse(raw)
		if err != nil {
			continue
		}
		deleteIDs = append(deleteIDs, rowID)
	}
	if len(deleteIDs) > 0 {
		q := r.Builder().
			Delete(spec.Table).
			Where(squirrel.Eq{"id": deleteIDs})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete %s: %w", spec.Table, err)
		}
	}

	return nil
}

// LinkedIDs returns the related ids of a foreign-key field for one record.
// Single-valued links read the record's own column; many-valued links query
// the join table.
func (r *RecordRepo) LinkedIDs(ctx context.Context, st *structure.Structure, spec form.LinkSpec, rec *record.Record) ([]string, error) {
	if !spec.Many {
		v := rec.Columns[spec.Column]
		if v == nil {
			return nil, nil
		}
		return []string{document.Stringify(v)}, nil
	}

	q := r.Builder().
		Select(spec.ToColumn).
		From(spec.JoinTable).
		Where(squirrel.Eq{spec.FromColumn: rec.ID}).
		OrderBy(spec.ToColumn)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("linked ids %s: %w", spec.JoinTable, err)
	}

	result := make([]string, 0, len(ids))
	for _, linkedID := range ids {
		result = append(result, linkedID.String())
	}
	return result, nil
}

// ResolveIDs resolves submitted raw ids against the target table. Ids that
// do not parse or match no row are silently dropped; submission order is
// preserved for the survivors.
func (r *RecordRepo) ResolveIDs(ctx context.Context, table string, raw []string) ([]id.ID, error) {
	parsed := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		parsedID, err := id.Parse(s)
		if err != nil {
			continue
		}
		parsed = append(parsed, parsedID)
	}
	if len(parsed) == 0 {
		return nil, nil
	}

	q := r.Builder().
		Select("id").
		From(table).
		Where(squirrel.Eq{"id": parsed})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &found, sql, args...); err != nil {
		return nil, fmt.Errorf("resolve ids %s: %w", table, err)
	}

	existing := make(map[id.ID]struct{}, len(found))
	for _, foundID := range found {
		existing[foundID] = struct{}{}
	}

	resolved := make([]id.ID, 0, len(parsed))
	for _, parsedID := range parsed {
		if _, ok := existing[parsedID]; ok {
			resolved = append(resolved, parsedID)
		}
	}
	return resolved, nil
}

// SetLink sets a single-valued foreign-key column; nil clears it.
func (r *RecordRepo) SetLink(ctx context.Context, st *structure.Structure, spec form.LinkSpec, fromID id.ID, toID *id.ID) error {
	var value any
	if toID != nil {
		value = *toID
	}

	q := r.Builder().
		Update(st.Table()).
		Set(spec.Column, value).
		Where(squirrel.Eq{"id": fromID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set link %s.%s: %w", st.Table(), spec.Column, err)
	}
	return nil
}

// ReplaceLinks replaces a many-valued link set wholesale: the prior join
// rows are deleted and the resolved submission is inserted in full.
func (r *RecordRepo) ReplaceLinks(ctx context.Context, spec form.LinkSpec, fromID id.ID, toIDs []id.ID) error {
	querier := r.querier(ctx)

	dq := r.Builder().
		Delete(spec.JoinTable).
		Where(squirrel.Eq{spec.FromColumn: fromID})

	sql, args, err := dq.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear links %s: %w", spec.JoinTable, err)
	}

	if len(toIDs) == 0 {
		return nil
	}

	iq := r.Builder().
		Insert(spec.JoinTable).
		Columns(spec.FromColumn, spec.ToColumn)
	for _, toID := range toIDs {
		iq = iq.Values(fromID, toID)
	}

	sql, args, err = iq.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert links %s: %w", spec.JoinTable, err)
	}
	return nil
}
