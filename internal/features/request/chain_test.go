package request

import (
	"context"
	"errors"
	"testing"

	"go-approvals/internal/common/apperrors"
	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolveDefaultChain(t *testing.T) {
	branch := primitive.NewObjectID()
	requester := primitive.NewObjectID()
	noters := []common_models.User{
		activeUser(primitive.NewObjectID(), branch),
		activeUser(primitive.NewObjectID(), branch),
	}
	manager := activeUser(primitive.NewObjectID(), branch)
	headOffice := []common_models.User{
		{ID: primitive.NewObjectID(), Approver: true, HeadOffice: true, Status: "active"},
	}

	directory := &fakeDirectory{
		branchApprovers: map[primitive.ObjectID][]common_models.User{branch: noters},
		areaManagers:    map[primitive.ObjectID]*common_models.User{branch: &manager},
		headOffice:      headOffice,
	}
	resolver := NewChainResolver(directory, &fakeReviewerFinder{}, &fakeRules{})

	chain, err := resolver.Resolve(context.Background(), requester, branch, common_models.RequestTypeCashAdvance, ChainSpec{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(chain.NotedBy) != 2 {
		t.Fatalf("noted_by = %d, want 2", len(chain.NotedBy))
	}
	if len(chain.ApprovedBy) != 2 {
		t.Fatalf("approved_by = %d, want 2 (manager + head office)", len(chain.ApprovedBy))
	}
	if chain.ApprovedBy[0] != manager.ID {
		t.Fatal("area manager must come before head-office approvers")
	}
}

func TestResolveDefaultExcludesRequester(t *testing.T) {
	branch := primitive.NewObjectID()
	requester := primitive.NewObjectID()

	directory := &fakeDirectory{
		branchApprovers: map[primitive.ObjectID][]common_models.User{
			// Requester is themselves a branch approver.
			branch: {activeUser(requester, branch), activeUser(primitive.NewObjectID(), branch)},
		},
		areaManagers: map[primitive.ObjectID]*common_models.User{},
		headOffice:   []common_models.User{{ID: primitive.NewObjectID(), Status: "active"}},
	}
	resolver := NewChainResolver(directory, &fakeReviewerFinder{}, &fakeRules{})

	chain, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{Mode: ChainModeDefault})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, id := range chain.Members() {
		if id == requester {
			t.Fatal("requester must never appear in their own chain")
		}
	}
}

func TestResolveDefaultDedupsAcrossSegments(t *testing.T) {
	branch := primitive.NewObjectID()
	manager := activeUser(primitive.NewObjectID(), branch)

	directory := &fakeDirectory{
		branchApprovers: map[primitive.ObjectID][]common_models.User{
			// Manager is also listed as a branch approver; the earlier
			// noted_by slot wins.
			branch: {manager},
		},
		areaManagers: map[primitive.ObjectID]*common_models.User{branch: &manager},
		headOffice:   []common_models.User{{ID: primitive.NewObjectID(), Status: "active"}},
	}
	resolver := NewChainResolver(directory, &fakeReviewerFinder{}, &fakeRules{})

	chain, err := resolver.Resolve(context.Background(), primitive.NewObjectID(), branch, "", ChainSpec{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	count := 0
	for _, id := range chain.Members() {
		if id == manager.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("manager appears %d times, want 1", count)
	}
	if len(chain.NotedBy) != 1 || chain.NotedBy[0] != manager.ID {
		t.Fatal("earliest occurrence must win")
	}
}

func TestResolveDefaultNoApproversFails(t *testing.T) {
	branch := primitive.NewObjectID()
	directory := &fakeDirectory{
		branchApprovers: map[primitive.ObjectID][]common_models.User{
			branch: {activeUser(primitive.NewObjectID(), branch)},
		},
		areaManagers: map[primitive.ObjectID]*common_models.User{},
		headOffice:   nil,
	}
	resolver := NewChainResolver(directory, &fakeReviewerFinder{}, &fakeRules{})

	_, err := resolver.Resolve(context.Background(), primitive.NewObjectID(), branch, "", ChainSpec{})
	var chainErr *apperrors.ChainResolutionError
	if !errors.As(err, &chainErr) {
		t.Fatalf("got %v, want ChainResolutionError", err)
	}
}

func TestResolveDefaultAppendsRuleExtras(t *testing.T) {
	branch := primitive.NewObjectID()
	extra := primitive.NewObjectID()

	directory := &fakeDirectory{
		branchApprovers: map[primitive.ObjectID][]common_models.User{branch: nil},
		areaManagers:    map[primitive.ObjectID]*common_models.User{},
		headOffice:      []common_models.User{{ID: primitive.NewObjectID(), Status: "active"}},
	}
	resolver := NewChainResolver(directory, &fakeReviewerFinder{}, &fakeRules{extras: []primitive.ObjectID{extra}})

	chain, err := resolver.Resolve(context.Background(), primitive.NewObjectID(), branch, "", ChainSpec{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if chain.ApprovedBy[len(chain.ApprovedBy)-1] != extra {
		t.Fatal("rule extras must be appended to approved_by")
	}
}

func TestResolveCustomChain(t *testing.T) {
	branch := primitive.NewObjectID()
	requester := primitive.NewObjectID()
	noter := activeUser(primitive.NewObjectID(), branch)
	approver := activeUser(primitive.NewObjectID(), branch)
	inactive := common_models.User{ID: primitive.NewObjectID(), Status: "inactive"}

	finder := &fakeReviewerFinder{users: map[string]common_models.User{
		noter.ID.Hex():    noter,
		approver.ID.Hex(): approver,
		inactive.ID.Hex(): inactive,
	}}
	resolver := NewChainResolver(&fakeDirectory{}, finder, &fakeRules{})

	t.Run("Valid", func(t *testing.T) {
		chain, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{
			Mode:       ChainModeCustom,
			NotedBy:    []string{noter.ID.Hex()},
			ApprovedBy: []string{approver.ID.Hex()},
		})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if len(chain.NotedBy) != 1 || len(chain.ApprovedBy) != 1 {
			t.Fatalf("chain = %+v, want 1+1", chain)
		}
	})

	t.Run("Empty ApprovedBy", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{
			Mode:    ChainModeCustom,
			NotedBy: []string{noter.ID.Hex()},
		})
		var invalid *apperrors.InvalidChainError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %v, want InvalidChainError", err)
		}
	})

	t.Run("Duplicate Across Lists", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{
			Mode:       ChainModeCustom,
			NotedBy:    []string{approver.ID.Hex()},
			ApprovedBy: []string{approver.ID.Hex()},
		})
		var invalid *apperrors.InvalidChainError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %v, want InvalidChainError", err)
		}
	})

	t.Run("Unknown Reviewer", func(t *testing.T) {
		stranger := primitive.NewObjectID()
		_, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{
			Mode:       ChainModeCustom,
			ApprovedBy: []string{stranger.Hex()},
		})
		var invalid *apperrors.InvalidChainError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %v, want InvalidChainError", err)
		}
		if len(invalid.IDs) != 1 || invalid.IDs[0] != stranger.Hex() {
			t.Fatalf("error must name the offending id, got %v", invalid.IDs)
		}
	})

	t.Run("Inactive Reviewer", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{
			Mode:       ChainModeCustom,
			ApprovedBy: []string{inactive.ID.Hex()},
		})
		var invalid *apperrors.InvalidChainError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %v, want InvalidChainError", err)
		}
	})

	t.Run("Requester In Chain", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{
			Mode:       ChainModeCustom,
			ApprovedBy: []string{requester.Hex()},
		})
		var invalid *apperrors.InvalidChainError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %v, want InvalidChainError", err)
		}
	})

	t.Run("Malformed ID", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), requester, branch, "", ChainSpec{
			Mode:       ChainModeCustom,
			ApprovedBy: []string{"not-an-id"},
		})
		var invalid *apperrors.InvalidChainError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %v, want InvalidChainError", err)
		}
	})
}
