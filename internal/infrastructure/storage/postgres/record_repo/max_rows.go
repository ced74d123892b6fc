package record_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/erni27/imcache"

	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
)

// maxRowsTTL bounds staleness when records are written outside this
// process. Saves through the repository invalidate eagerly.
const maxRowsTTL = 5 * time.Minute

func maxRowsKey(st *structure.Structure, keyword, field string) string {
	return st.Name() + "/" + keyword + "/" + field
}

// MaxRows returns the largest stored row count of a repeating field across
// all records of the structure. The scan aggregates over the whole table,
// so results are cached per field.
func (r *RecordRepo) MaxRows(ctx context.Context, st *structure.Structure, keyword, field string) (int, error) {
	key := maxRowsKey(st, keyword, field)
	if n, ok := r.maxRows.Get(key); ok {
		return n, nil
	}

	q := r.Builder().
		Select().
		Column(squirrel.Expr("COALESCE(MAX(jsonb_array_length(data->?->?)), 0)", keyword, field)).
		From(st.Table()).
		Where(squirrel.Expr("jsonb_typeof(data->?->?) = 'array'", keyword, field))

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("max rows %s.%s.%s: %w", st.Table(), keyword, field, err)
	}

	r.maxRows.Set(key, n, imcache.WithExpiration(maxRowsTTL))
	return n, nil
}

func (r *RecordRepo) invalidateMaxRows(st *structure.Structure) {
	for _, sec := range st.Sections() {
		for _, f := range sec.Fields {
			if f.Storage == form.StorageJSONRepeating {
				r.maxRows.Remove(maxRowsKey(st, sec.Keyword, f.Name))
			}
		}
	}
}
