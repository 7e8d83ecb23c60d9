package request

import (
	"context"
	"fmt"

	"go-approvals/internal/common/apperrors"
	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/features/routing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrgDirectory is the slice of the branch service the resolver needs.
type OrgDirectory interface {
	ApproversForBranch(ctx context.Context, branchID primitive.ObjectID) ([]common_models.User, error)
	AreaManagerFor(ctx context.Context, branchID primitive.ObjectID) (*common_models.User, error)
	HeadOfficeApprovers(ctx context.Context) ([]common_models.User, error)
}

// ReviewerFinder resolves reviewer ids for custom-chain validation.
type ReviewerFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]common_models.User, error)
}

// RuleEvaluator lets routing-rule scripts append approvers to a
// default chain.
type RuleEvaluator interface {
	ExtraApprovers(ctx context.Context, input routing.ChainInput) ([]primitive.ObjectID, error)
}

// ChainResolver turns a ChainSpec into the ordered reviewer chain for
// one cycle. Resolution happens once, eagerly; the ledger materializes
// a pending entry per member immediately after.
type ChainResolver interface {
	Resolve(ctx context.Context, requesterID, branchID primitive.ObjectID, reqType common_models.RequestType, spec ChainSpec) (*Chain, error)
}

type ChainResolverImpl struct {
	directory OrgDirectory
	reviewers ReviewerFinder
	rules     RuleEvaluator
}

func NewChainResolver(directory OrgDirectory, reviewers ReviewerFinder, rules RuleEvaluator) ChainResolver {
	return &ChainResolverImpl{
		directory: directory,
		reviewers: reviewers,
		rules:     rules,
	}
}

func (r *ChainResolverImpl) Resolve(ctx context.Context, requesterID, branchID primitive.ObjectID, reqType common_models.RequestType, spec ChainSpec) (*Chain, error) {
	switch spec.Mode {
	case ChainModeDefault, "":
		return r.resolveDefault(ctx, requesterID, branchID, reqType)
	case ChainModeCustom:
		return r.resolveCustom(ctx, requesterID, spec)
	default:
		return nil, &apperrors.InvalidChainError{Reason: fmt.Sprintf("unknown chain mode %q", spec.Mode)}
	}
}

// resolveDefault builds the branch's standard chain: same-branch
// approvers note, then the area manager and the head-office pool
// approve. The requester never reviews their own request, and a
// reviewer appears at most once, keeping the earliest slot.
func (r *ChainResolverImpl) resolveDefault(ctx context.Context, requesterID, branchID primitive.ObjectID, reqType common_models.RequestType) (*Chain, error) {
	branchApprovers, err := r.directory.ApproversForBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	seen := map[primitive.ObjectID]bool{requesterID: true}
	chain := &Chain{}

	for _, u := range branchApprovers {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		chain.NotedBy = append(chain.NotedBy, u.ID)
	}

	manager, err := r.directory.AreaManagerFor(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if manager != nil && !seen[manager.ID] {
		seen[manager.ID] = true
		chain.ApprovedBy = append(chain.ApprovedBy, manager.ID)
	}

	headOffice, err := r.directory.HeadOfficeApprovers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range headOffice {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		chain.ApprovedBy = append(chain.ApprovedBy, u.ID)
	}

	extras, err := r.rules.ExtraApprovers(ctx, routing.ChainInput{
		RequestType: string(reqType),
		BranchID:    branchID,
		RequesterID: requesterID,
		NotedBy:     chain.NotedBy,
		ApprovedBy:  chain.ApprovedBy,
	})
	if err != nil {
		return nil, err
	}
	for _, id := range extras {
		if seen[id] {
			continue
		}
		seen[id] = true
		chain.ApprovedBy = append(chain.ApprovedBy, id)
	}

	if len(chain.ApprovedBy) == 0 {
		return nil, &apperrors.ChainResolutionError{
			BranchID: branchID.Hex(),
			Reason:   "no area manager or head-office approver available",
		}
	}

	return chain, nil
}

// resolveCustom validates a caller-supplied chain verbatim. Order is
// preserved exactly as given.
func (r *ChainResolverImpl) resolveCustom(ctx context.Context, requesterID primitive.ObjectID, spec ChainSpec) (*Chain, error) {
	if len(spec.ApprovedBy) == 0 {
		return nil, &apperrors.InvalidChainError{Reason: "approved_by must not be empty"}
	}

	chain := &Chain{}
	seen := make(map[primitive.ObjectID]bool)
	var duplicates []string

	parse := func(hexes []string, dest *[]primitive.ObjectID) error {
		for _, hex := range hexes {
			id, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				return &apperrors.InvalidChainError{Reason: "malformed reviewer id", IDs: []string{hex}}
			}
			if id == requesterID {
				return &apperrors.InvalidChainError{Reason: "requester cannot review their own request", IDs: []string{hex}}
			}
			if seen[id] {
				duplicates = append(duplicates, hex)
				continue
			}
			seen[id] = true
			*dest = append(*dest, id)
		}
		return nil
	}

	if err := parse(spec.NotedBy, &chain.NotedBy); err != nil {
		return nil, err
	}
	if err := parse(spec.ApprovedBy, &chain.ApprovedBy); err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		return nil, &apperrors.InvalidChainError{Reason: "reviewer listed more than once", IDs: duplicates}
	}

	allIDs := make([]string, 0, len(seen))
	for _, id := range chain.Members() {
		allIDs = append(allIDs, id.Hex())
	}
	users, err := r.reviewers.FindByIDs(ctx, allIDs)
	if err != nil {
		return nil, err
	}
	active := make(map[primitive.ObjectID]bool, len(users))
	for _, u := range users {
		if u.Status == "active" {
			active[u.ID] = true
		}
	}
	var unknown []string
	for _, id := range chain.Members() {
		if !active[id] {
			unknown = append(unknown, id.Hex())
		}
	}
	if len(unknown) > 0 {
		return nil, &apperrors.InvalidChainError{Reason: "unknown or inactive reviewer", IDs: unknown}
	}

	return chain, nil
}
