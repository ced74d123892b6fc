package record

import (
	"stepform/internal/domain/form"
)

// ThroughUpdate updates the payload of a surviving join row.
type ThroughUpdate struct {
	ID      string
	Payload map[string]any
}

// ThroughPlan is the reconciliation outcome for one through relation:
// which join rows to create, update, and delete.
type ThroughPlan struct {
	Creates []form.LinkRow
	Updates []ThroughUpdate
	Deletes []string
}

// Empty reports whether the plan changes nothing.
func (p ThroughPlan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// PlanThrough reconciles submitted relation rows against the currently
// existing join rows. A submitted row whose through_id matches an existing
// join row updates that row's payload and keeps it alive; a through_id that
// fails to resolve is treated as "create new", not an error. Every existing
// join row absent from the submission is deleted: rows removed from the
// form are link deletions (delete-by-absence, not delete-by-flag).
//
// Rows without a target id are skipped here; the mapper already rejected
// any such row carrying payload data.
func PlanThrough(existing []form.ThroughRow, submitted []form.LinkRow) ThroughPlan {
	remaining := make(map[string]bool, len(existing))
	for _, row := range existing {
		remaining[row.ID] = true
	}

	var plan ThroughPlan
	for _, row := range submitted {
		if row.ThroughID != "" && remaining[row.ThroughID] {
			plan.Updates = append(plan.Updates, ThroughUpdate{ID: row.ThroughID, Payload: row.Payload})
			delete(remaining, row.ThroughID)
			continue
		}
		if row.ToID == "" {
			continue
		}
		plan.Creates = append(plan.Creates, row)
	}

	// Leftover ids were removed from the submission; delete those links,
	// keeping the original relation order for determinism.
	for _, row := range existing {
		if remaining[row.ID] {
			plan.Deletes = append(plan.Deletes, row.ID)
		}
	}

	return plan
}
