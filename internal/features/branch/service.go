package branch

import (
	"context"
	"errors"

	"go-approvals/internal/common/apperrors"
	"go-approvals/internal/common/models"
	"go-approvals/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BranchService is the org directory the chain resolver consults:
// who approves for a branch, who the area manager is, and who sits in
// the head-office pool.
type BranchService interface {
	CreateBranch(ctx context.Context, branch *Branch) error
	GetBranch(ctx context.Context, id string) (*Branch, error)
	ListBranches(ctx context.Context) ([]Branch, error)
	UpdateBranch(ctx context.Context, id string, branch *Branch) error
	DeleteBranch(ctx context.Context, id string) error

	// Org directory contract
	ApproversForBranch(ctx context.Context, branchID primitive.ObjectID) ([]models.User, error)
	AreaManagerFor(ctx context.Context, branchID primitive.ObjectID) (*models.User, error)
	HeadOfficeApprovers(ctx context.Context) ([]models.User, error)
}

type BranchServiceImpl struct {
	Repo     BranchRepository
	UserRepo user.UserRepository
}

func NewBranchService(repo BranchRepository, userRepo user.UserRepository) BranchService {
	return &BranchServiceImpl{
		Repo:     repo,
		UserRepo: userRepo,
	}
}

func (s *BranchServiceImpl) CreateBranch(ctx context.Context, branch *Branch) error {
	if branch.Name == "" || branch.Code == "" {
		return errors.New("branch name and code are required")
	}
	if branch.Status == "" {
		branch.Status = "active"
	}
	return s.Repo.Create(ctx, branch)
}

func (s *BranchServiceImpl) GetBranch(ctx context.Context, id string) (*Branch, error) {
	branch, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, &apperrors.NotFoundError{Resource: "branch", ID: id}
	}
	return branch, nil
}

func (s *BranchServiceImpl) ListBranches(ctx context.Context) ([]Branch, error) {
	return s.Repo.List(ctx)
}

func (s *BranchServiceImpl) UpdateBranch(ctx context.Context, id string, branch *Branch) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &apperrors.NotFoundError{Resource: "branch", ID: id}
	}
	return s.Repo.Update(ctx, id, branch)
}

func (s *BranchServiceImpl) DeleteBranch(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

func (s *BranchServiceImpl) ApproversForBranch(ctx context.Context, branchID primitive.ObjectID) ([]models.User, error) {
	return s.UserRepo.FindApproversByBranch(ctx, branchID)
}

// AreaManagerFor returns nil without error when the branch has no area
// manager assigned; the chain resolver falls back to head office.
func (s *BranchServiceImpl) AreaManagerFor(ctx context.Context, branchID primitive.ObjectID) (*models.User, error) {
	branch, err := s.Repo.FindByID(ctx, branchID.Hex())
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, &apperrors.NotFoundError{Resource: "branch", ID: branchID.Hex()}
	}
	if branch.AreaManagerID.IsZero() {
		return nil, nil
	}
	manager, err := s.UserRepo.FindByID(ctx, branch.AreaManagerID.Hex())
	if err != nil {
		return nil, err
	}
	if manager != nil && manager.Status != "active" {
		return nil, nil
	}
	return manager, nil
}

func (s *BranchServiceImpl) HeadOfficeApprovers(ctx context.Context) ([]models.User, error) {
	return s.UserRepo.FindHeadOfficeApprovers(ctx)
}
