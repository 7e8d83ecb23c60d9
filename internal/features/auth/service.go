package auth

import (
	"context"
	"errors"
	"time"

	"go-approvals/internal/common/models"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/user"
	"go-approvals/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

type RegisterInput struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
	BranchID   string `json:"branch_id"`
	Approver   bool   `json:"approver"`
	HeadOffice bool   `json:"head_office"`
}

type AuthServiceImpl struct {
	UserRepo     user.UserRepository
	AuditService audit.AuditService
}

func NewAuthService(userRepo user.UserRepository, auditService audit.AuditService) AuthService {
	return &AuthServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, errors.New("username and password are required")
	}

	if existing, err := s.UserRepo.FindByUsername(ctx, input.Username); err == nil && existing != nil {
		return nil, errors.New("username already taken")
	}

	// hash password placeholder (TODO: use bcrypt)
	hashedPassword := input.Password

	newUser := models.User{
		ID:         primitive.NewObjectID(),
		Username:   input.Username,
		Password:   hashedPassword,
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Position:   input.Position,
		Approver:   input.Approver,
		HeadOffice: input.HeadOffice,
		Status:     "active",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if input.BranchID != "" {
		branchID, err := primitive.ObjectIDFromHex(input.BranchID)
		if err != nil {
			return nil, errors.New("invalid branch id")
		}
		newUser.BranchID = branchID
	}

	if err := s.UserRepo.Create(ctx, &newUser); err != nil {
		return nil, err
	}

	changes := map[string]models.Change{
		"username": {New: input.Username},
		"email":    {New: input.Email},
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "user", newUser.ID.Hex(), changes)

	return &newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	usr, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil || usr == nil {
		return "", nil, errors.New("invalid credentials")
	}

	// Check password (TODO: use bcrypt)
	if usr.Password != password {
		return "", nil, errors.New("invalid credentials")
	}

	if usr.Status == "suspended" {
		return "", nil, errors.New("account suspended")
	}
	if usr.Status == "inactive" {
		return "", nil, errors.New("account inactive")
	}

	token, err := utils.GenerateToken(usr.ID, usr.BranchID, usr.Position, usr.Approver)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	usr.LastLogin = &now
	if err := s.UserRepo.Update(ctx, usr.ID.Hex(), usr); err == nil {
		_ = s.AuditService.LogChange(ctx, models.AuditActionLogin, "user", usr.ID.Hex(), nil)
	}

	return token, usr, nil
}
