// Package record_repo provides the PostgreSQL implementation of the record
// repository. Records live in one table per structure: plain attributes as
// relational columns plus a single JSONB document column named data.
package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/erni27/imcache"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stepform/internal/core/apperror"
	"stepform/internal/core/id"
	"stepform/internal/domain/document"
	"stepform/internal/domain/form"
	"stepform/internal/domain/record"
	"stepform/internal/domain/structure"
	"stepform/internal/infrastructure/storage/postgres"
)

// RecordRepo persists records and their relations for any registered
// structure. It also serves as the repeating-row count provider for
// property synthesis, backed by a small in-memory cache.
type RecordRepo struct {
	txManager *postgres.TxManager
	maxRows   *imcache.Cache[string, int]
}

// New creates a record repository bound to the given transaction manager.
func New(txManager *postgres.TxManager) *RecordRepo {
	return &RecordRepo{
		txManager: txManager,
		maxRows:   imcache.New[string, int](),
	}
}

// Builder returns a new squirrel builder.
func (r *RecordRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *RecordRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// recordRow is the scan target for record queries. Plain columns come back
// as one JSONB object so a single query serves every structure without
// per-structure scan structs.
type recordRow struct {
	ID      id.ID             `db:"id"`
	Data    document.Document `db:"data"`
	Columns document.Document `db:"columns"`
}

func (r *RecordRepo) baseSelect(st *structure.Structure) squirrel.SelectBuilder {
	return r.Builder().
		Select("id", "data").
		Column(fmt.Sprintf("to_jsonb(%s.*) - 'id' - 'data' AS columns", st.Table())).
		From(st.Table())
}

func (r *RecordRepo) toRecord(st *structure.Structure, row recordRow) *record.Record {
	declared := append(st.ColumnFields(), st.SingleLinkColumns()...)
	columns := make(map[string]any, len(declared))
	for _, col := range declared {
		columns[col] = row.Columns[col]
	}
	return &record.Record{
		ID:      row.ID,
		Columns: columns,
		Data:    row.Data,
	}
}

// Get retrieves one record with its plain columns and document.
func (r *RecordRepo) Get(ctx context.Context, st *structure.Structure, recordID id.ID) (*record.Record, error) {
	q := r.baseSelect(st).
		Where(squirrel.Eq{"id": recordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row recordRow
	if err := pgxscan.Get(ctx, r.querier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(st.Name(), recordID.String())
		}
		return nil, fmt.Errorf("get %s: %w", st.Table(), err)
	}

	return r.toRecord(st, row), nil
}

// List retrieves all records of the structure's table in id order.
func (r *RecordRepo) List(ctx context.Context, st *structure.Structure) ([]*record.Record, error) {
	q := r.baseSelect(st).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []recordRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", st.Table(), err)
	}

	records := make([]*record.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, r.toRecord(st, row))
	}
	return records, nil
}

// Save creates-or-updates the record's plain columns by primary key, then
// merges each write into the stored document along its path. An update
// never replaces the document wholesale: sibling keys written by other
// steps survive untouched.
func (r *RecordRepo) Save(ctx context.Context, st *structure.Structure, recordID *id.ID, columns map[string]any, writes []form.PathValue) (*record.Record, error) {
	var savedID id.ID
	var err error

	if recordID != nil {
		savedID, err = r.update(ctx, st, *recordID, columns, writes)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		if apperror.IsNotFound(err) {
			// Caller supplied a fresh id: create under it.
			savedID, err = r.insert(ctx, st, *recordID, columns, writes)
		}
	} else {
		savedID, err = r.insert(ctx, st, id.New(), columns, writes)
	}
	if err != nil {
		return nil, err
	}

	r.invalidateMaxRows(st)

	return r.Get(ctx, st, savedID)
}

func (r *RecordRepo) update(ctx context.Context, st *structure.Structure, recordID id.ID, columns map[string]any, writes []form.PathValue) (id.ID, error) {
	q := r.Builder().
		Select("data").
		From(st.Table()).
		Where(squirrel.Eq{"id": recordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return id.Nil(), fmt.Errorf("build query: %w", err)
	}

	var stored struct {
		Data document.Document `db:"data"`
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), &stored, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return id.Nil(), apperror.NewNotFound(st.Name(), recordID.String())
		}
		return id.Nil(), fmt.Errorf("load document %s: %w", st.Table(), err)
	}

	merged := stored.Data
	for _, w := range writes {
		merged = merged.SetPath(w.Path, w.Value)
	}

	uq := r.Builder().
		Update(st.Table()).
		SetMap(columns).
		Set("data", merged).
		Where(squirrel.Eq{"id": recordID})

	sql, args, err = uq.ToSql()
	if err != nil {
		return id.Nil(), fmt.Errorf("build update: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return id.Nil(), fmt.Errorf("update %s: %w", st.Table(), err)
	}

	return recordID, nil
}

// Delete removes the record and its relation rows. Join rows are removed
// explicitly since the schema is not assumed to cascade.
func (r *RecordRepo) Delete(ctx context.Context, st *structure.Structure, recordID id.ID) error {
	for _, sec := range st.Sections() {
		for _, f := range sec.Fields {
			switch f.Storage {
			case form.StorageThrough:
				if err := r.deleteJoinRows(ctx, f.Through.Table, f.Through.FromColumn, recordID); err != nil {
					return err
				}
			case form.StorageForeignKey:
				if f.Link.Many {
					if err := r.deleteJoinRows(ctx, f.Link.JoinTable, f.Link.FromColumn, recordID); err != nil {
						return err
					}
				}
			}
		}
	}

	q := r.Builder().
		Delete(st.Table()).
		Where(squirrel.Eq{"id": recordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", st.Table(), err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(st.Name(), recordID.String())
	}

	r.invalidateMaxRows(st)
	return nil
}

func (r *RecordRepo) deleteJoinRows(ctx context.Context, table, fromColumn string, fromID id.ID) error {
	q := r.Builder().
		Delete(table).
		Where(squirrel.Eq{fromColumn: fromID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete join rows %s: %w", table, err)
	}
	return nil
}

func (r *RecordRepo) insert(ctx context.Context, st *structure.Structure, recordID id.ID, columns map[string]any, writes []form.PathValue) (id.ID, error) {
	doc := document.Document{}
	for _, w := range writes {
		doc = doc.SetPath(w.Path, w.Value)
	}

	values := make(map[string]any, len(columns)+2)
	for col, v := range columns {
		values[col] = v
	}
	values["id"] = recordID
	values["data"] = doc

	q := r.Builder().
		Insert(st.Table()).
		SetMap(values)

	sql, args, err := q.ToSql()
	if err != nil {
		return id.Nil(), fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return id.Nil(), fmt.Errorf("insert %s: %w", st.Table(), err)
	}

	return recordID, nil
}
