package record

import (
	"context"
	"fmt"

	"stepform/internal/core/apperror"
	"stepform/internal/core/id"
	"stepform/internal/core/tx"
	"stepform/internal/domain/form"
	"stepform/internal/domain/structure"
	"stepform/pkg/logger"
)

// Refresher re-synthesizes virtual properties after a record save, since
// repeating-row counts can grow.
type Refresher interface {
	Refresh(ctx context.Context, st *structure.Structure)
}

// Service provides wizard-step persistence over records: it maps submitted
// values onto the relational row and the JSON document, reconciles relation
// rows, and keeps virtual properties in sync.
type Service struct {
	repo      Repository
	refresher Refresher
	txManager tx.Manager
}

// NewService creates a record Service. A nil refresher disables property
// resynthesis (used by tools that never save).
func NewService(repo Repository, refresher Refresher, txManager tx.Manager) *Service {
	if txManager == nil {
		txManager = tx.None()
	}
	return &Service{
		repo:      repo,
		refresher: refresher,
		txManager: txManager,
	}
}

// Get retrieves one record.
func (s *Service) Get(ctx context.Context, st *structure.Structure, recordID id.ID) (*Record, error) {
	return s.repo.Get(ctx, st, recordID)
}

// List retrieves all records of a structure.
func (s *Service) List(ctx context.Context, st *structure.Structure) ([]*Record, error) {
	return s.repo.List(ctx, st)
}

// SaveStep persists one submitted wizard step. The submitted values are
// split into column assignments and document writes, the record is
// created-or-updated, relation rows are reconciled, and virtual properties
// are refreshed. The persistence sequence runs inside one transaction.
func (s *Service) SaveStep(ctx context.Context, st *structure.Structure, keyword string, recordID *id.ID, values form.Values) (*Record, error) {
	sec, ok := st.Section(keyword)
	if !ok {
		return nil, apperror.NewNotFound("section", keyword).WithDetail("structure", st.Name())
	}

	columns, writes, err := form.ToModel(keyword, sec.Fields, values)
	if err != nil {
		return nil, err
	}

	var rec *Record
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err = s.repo.Save(ctx, st, recordID, columns, writes)
		if err != nil {
			return fmt.Errorf("save record: %w", err)
		}

		for _, f := range sec.Fields {
			switch f.Storage {
			case form.StorageThrough:
				if err := s.reconcileThrough(ctx, f, rec.ID, values); err != nil {
					return err
				}
			case form.StorageForeignKey:
				if err := s.reconcileLink(ctx, st, f, rec.ID, values); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.refresher != nil {
		s.refresher.Refresh(ctx, st)
	}

	logger.Debug(ctx, "step saved",
		"structure", st.Name(),
		"section", keyword,
		"record_id", rec.ID.String(),
	)
	return rec, nil
}

func (s *Service) reconcileThrough(ctx context.Context, f form.FieldSpec, fromID id.ID, values form.Values) error {
	submitted := form.ThroughFieldRows(f, values)

	existing, err := s.repo.ThroughRows(ctx, *f.Through, fromID)
	if err != nil {
		return fmt.Errorf("load through rows %s: %w", f.Name, err)
	}

	plan := PlanThrough(existing, submitted)
	if plan.Empty() {
		return nil
	}
	if err := s.repo.ApplyThroughPlan(ctx, *f.Through, fromID, plan); err != nil {
		return fmt.Errorf("reconcile through rows %s: %w", f.Name, err)
	}
	return nil
}

func (s *Service) reconcileLink(ctx context.Context, st *structure.Structure, f form.FieldSpec, fromID id.ID, values form.Values) error {
	raw := form.LinkFieldIDs(f, values)

	// Misses are dropped, never raised.
	resolved, err := s.repo.ResolveIDs(ctx, f.Link.TargetTable, raw)
	if err != nil {
		return fmt.Errorf("resolve link ids %s: %w", f.Name, err)
	}

	if f.Link.Many {
		if err := s.repo.ReplaceLinks(ctx, *f.Link, fromID, resolved); err != nil {
			return fmt.Errorf("replace links %s: %w", f.Name, err)
		}
		return nil
	}

	var toID *id.ID
	if len(resolved) > 0 {
		toID = &resolved[0]
	}
	if err := s.repo.SetLink(ctx, st, *f.Link, fromID, toID); err != nil {
		return fmt.Errorf("set link %s: %w", f.Name, err)
	}
	return nil
}

// Delete removes one record with its relation rows and refreshes virtual
// properties, since the deleted record may have held the longest repeating
// row list.
func (s *Service) Delete(ctx context.Context, st *structure.Structure, recordID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, st, recordID)
	})
	if err != nil {
		return err
	}

	if s.refresher != nil {
		s.refresher.Refresh(ctx, st)
	}

	logger.Debug(ctx, "record deleted",
		"structure", st.Name(),
		"record_id", recordID.String(),
	)
	return nil
}

// LoadStep reconstructs form-ready values for one wizard step. A nil
// recordID yields empty values (the add form).
func (s *Service) LoadStep(ctx context.Context, st *structure.Structure, keyword string, recordID *id.ID) (form.Values, error) {
	sec, ok := st.Section(keyword)
	if !ok {
		return nil, apperror.NewNotFound("section", keyword).WithDetail("structure", st.Name())
	}

	view := form.View{
		Through: make(map[string][]form.ThroughRow),
		Links:   make(map[string][]string),
	}

	if recordID == nil {
		return form.FromModel(keyword, sec.Fields, view), nil
	}

	rec, err := s.repo.Get(ctx, st, *recordID)
	if err != nil {
		return nil, err
	}
	view.Columns = rec.Columns
	view.Doc = rec.Data

	for _, f := range sec.Fields {
		switch f.Storage {
		case form.StorageThrough:
			rows, err := s.repo.ThroughRows(ctx, *f.Through, rec.ID)
			if err != nil {
				return nil, fmt.Errorf("load through rows %s: %w", f.Name, err)
			}
			view.Through[f.Name] = rows
		case form.StorageForeignKey:
			ids, err := s.repo.LinkedIDs(ctx, st, *f.Link, rec)
			if err != nil {
				return nil, fmt.Errorf("load linked ids %s: %w", f.Name, err)
			}
			view.Links[f.Name] = ids
		}
	}

	return form.FromModel(keyword, sec.Fields, view), nil
}
