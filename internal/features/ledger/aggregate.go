package ledger

import (
	"sort"

	common_models "go-approvals/internal/common/models"
)

// Pure functions over a chain snapshot. The request service recomputes
// the aggregate after every accepted transition; nothing here touches
// storage.

// SortChainOrder orders decisions in place: noted_by entries before
// approved_by entries, ordinal ascending within each category.
func SortChainOrder(ds []Decision) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Category != ds[j].Category {
			return ds[i].Category == common_models.CategoryNotedBy
		}
		return ds[i].Ordinal < ds[j].Ordinal
	})
}

// Aggregate derives the request-level status from all decisions:
// any disapproval wins, all approvals mean approved, a partial set of
// approvals is ongoing, and an untouched chain is pending.
func Aggregate(ds []Decision) common_models.ApprovalStatus {
	anyApproved := false
	allApproved := len(ds) > 0
	for _, d := range ds {
		switch d.Status {
		case common_models.StatusDisapproved:
			return common_models.StatusDisapproved
		case common_models.StatusApproved:
			anyApproved = true
		default:
			allApproved = false
		}
	}
	if allApproved {
		return common_models.StatusApproved
	}
	if anyApproved {
		return common_models.StatusOngoing
	}
	return common_models.StatusPending
}

// PendingApprover returns the first pending decision in chain order, or
// nil when the aggregate is terminal. This is both the display answer
// ("whose turn is it") and the authorization gate under strict
// sequential enforcement.
func PendingApprover(ds []Decision) *Decision {
	sorted := make([]Decision, len(ds))
	copy(sorted, ds)
	SortChainOrder(sorted)
	for i := range sorted {
		if sorted[i].Status == common_models.StatusPending {
			return &sorted[i]
		}
	}
	return nil
}
