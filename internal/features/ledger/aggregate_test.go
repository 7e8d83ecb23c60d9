package ledger

import (
	"math/rand"
	"testing"

	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func chainOf(notedBy, approvedBy int) []Decision {
	var ds []Decision
	for i := 0; i < notedBy; i++ {
		ds = append(ds, Decision{
			ID:         primitive.NewObjectID(),
			ReviewerID: primitive.NewObjectID(),
			Category:   common_models.CategoryNotedBy,
			Ordinal:    i + 1,
			Status:     common_models.StatusPending,
		})
	}
	for i := 0; i < approvedBy; i++ {
		ds = append(ds, Decision{
			ID:         primitive.NewObjectID(),
			ReviewerID: primitive.NewObjectID(),
			Category:   common_models.CategoryApprovedBy,
			Ordinal:    i + 1,
			Status:     common_models.StatusPending,
		})
	}
	return ds
}

func TestAggregate(t *testing.T) {
	p := common_models.StatusPending
	a := common_models.StatusApproved
	d := common_models.StatusDisapproved

	tests := []struct {
		name     string
		statuses []common_models.ApprovalStatus
		want     common_models.ApprovalStatus
	}{
		{"All Pending", []common_models.ApprovalStatus{p, p, p}, common_models.StatusPending},
		{"All Approved", []common_models.ApprovalStatus{a, a}, common_models.StatusApproved},
		{"Partial Approved", []common_models.ApprovalStatus{a, p}, common_models.StatusOngoing},
		{"Single Disapproval Wins", []common_models.ApprovalStatus{a, d, p}, common_models.StatusDisapproved},
		{"Disapproval Before Any Approval", []common_models.ApprovalStatus{d, p}, common_models.StatusDisapproved},
		{"Single Approver Approved", []common_models.ApprovalStatus{a}, common_models.StatusApproved},
		{"Single Approver Pending", []common_models.ApprovalStatus{p}, common_models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := chainOf(0, len(tt.statuses))
			for i := range ds {
				ds[i].Status = tt.statuses[i]
			}
			if got := Aggregate(ds); got != tt.want {
				t.Errorf("Aggregate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Exhaustive over random status assignments: the aggregate must satisfy
// the truth table regardless of chain shape.
func TestAggregateRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	statuses := []common_models.ApprovalStatus{
		common_models.StatusPending,
		common_models.StatusApproved,
		common_models.StatusDisapproved,
	}

	for trial := 0; trial < 500; trial++ {
		ds := chainOf(rng.Intn(3), 1+rng.Intn(4))
		anyDis, anyApp, allApp := false, false, true
		for i := range ds {
			ds[i].Status = statuses[rng.Intn(len(statuses))]
			switch ds[i].Status {
			case common_models.StatusDisapproved:
				anyDis = true
				allApp = false
			case common_models.StatusApproved:
				anyApp = true
			default:
				allApp = false
			}
		}

		got := Aggregate(ds)
		switch {
		case anyDis:
			if got != common_models.StatusDisapproved {
				t.Fatalf("trial %d: got %v, want disapproved", trial, got)
			}
		case allApp:
			if got != common_models.StatusApproved {
				t.Fatalf("trial %d: got %v, want approved", trial, got)
			}
		case anyApp:
			if got != common_models.StatusOngoing {
				t.Fatalf("trial %d: got %v, want ongoing", trial, got)
			}
		default:
			if got != common_models.StatusPending {
				t.Fatalf("trial %d: got %v, want pending", trial, got)
			}
		}
	}
}

func TestPendingApproverOrdering(t *testing.T) {
	t.Run("NotedBy Before ApprovedBy", func(t *testing.T) {
		ds := chainOf(2, 2)
		// Shuffle so the result cannot depend on slice position
		ds[0], ds[3] = ds[3], ds[0]

		next := PendingApprover(ds)
		if next == nil {
			t.Fatal("expected a pending approver")
		}
		if next.Category != common_models.CategoryNotedBy || next.Ordinal != 1 {
			t.Errorf("got (%s, %d), want (noted_by, 1)", next.Category, next.Ordinal)
		}
	})

	t.Run("Never ApprovedBy While NotedBy Pending", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for trial := 0; trial < 200; trial++ {
			ds := chainOf(1+rng.Intn(3), 1+rng.Intn(3))
			for i := range ds {
				if rng.Intn(2) == 0 {
					ds[i].Status = common_models.StatusApproved
				}
			}
			anyNotedPending := false
			for _, d := range ds {
				if d.Category == common_models.CategoryNotedBy && d.Status == common_models.StatusPending {
					anyNotedPending = true
				}
			}
			next := PendingApprover(ds)
			if anyNotedPending && next != nil && next.Category == common_models.CategoryApprovedBy {
				t.Fatalf("trial %d: approved_by turn while noted_by still pending", trial)
			}
		}
	})

	t.Run("Ordinal Ascending", func(t *testing.T) {
		ds := chainOf(0, 3)
		ds[0].Status = common_models.StatusApproved

		next := PendingApprover(ds)
		if next == nil || next.Ordinal != 2 {
			t.Fatalf("got %+v, want ordinal 2", next)
		}
	})

	t.Run("Nil When Fully Decided", func(t *testing.T) {
		ds := chainOf(0, 2)
		for i := range ds {
			ds[i].Status = common_models.StatusApproved
		}
		if next := PendingApprover(ds); next != nil {
			t.Errorf("expected nil, got %+v", next)
		}
	})
}
