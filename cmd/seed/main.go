package main

import (
	"context"
	"fmt"
	"time"

	common_models "go-approvals/internal/common/models"
	"go-approvals/internal/config"
	"go-approvals/internal/database"
	"go-approvals/internal/features/branch"
	"go-approvals/internal/features/user"
	"go-approvals/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Seed populates a development directory: two branches with their
// approvers, an area manager and a head-office pool. Safe to re-run,
// everything goes through upserts.
func Seed(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	branchRepo branch.BranchRepository,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				logger.Info("🌱 Seeding development directory...")

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				branches := []branch.Branch{
					{Code: "BR-NORTH", Name: "North Branch", Status: "active"},
					{Code: "BR-SOUTH", Name: "South Branch", Status: "active"},
				}
				for i := range branches {
					if err := branchRepo.Upsert(ctx, &branches[i]); err != nil {
						logger.Error("failed to seed branch", zap.String("code", branches[i].Code), zap.Error(err))
						return
					}
				}

				branchIDs := make(map[string]primitive.ObjectID, len(branches))
				for _, b := range branches {
					stored, err := branchRepo.FindByCode(ctx, b.Code)
					if err != nil || stored == nil {
						logger.Error("failed to look up seeded branch", zap.String("code", b.Code))
						return
					}
					branchIDs[b.Code] = stored.ID
				}

				users := []common_models.User{
					{Username: "requester.north", Email: "requester.north@example.com", Position: "Branch Staff", BranchID: branchIDs["BR-NORTH"], Status: "active"},
					{Username: "noter1.north", Email: "noter1.north@example.com", Position: "Branch Supervisor", BranchID: branchIDs["BR-NORTH"], Approver: true, Status: "active"},
					{Username: "noter2.north", Email: "noter2.north@example.com", Position: "Branch Accountant", BranchID: branchIDs["BR-NORTH"], Approver: true, Status: "active"},
					{Username: "manager.area1", Email: "manager.area1@example.com", Position: "Area Manager", Approver: true, Status: "active"},
					{Username: "ho.finance", Email: "ho.finance@example.com", Position: "Finance Head", Approver: true, HeadOffice: true, Status: "active"},
					{Username: "ho.operations", Email: "ho.operations@example.com", Position: "Operations Head", Approver: true, HeadOffice: true, Status: "active"},
				}
				for i := range users {
					users[i].Password = "password123"
					if err := userRepo.Upsert(ctx, &users[i]); err != nil {
						logger.Error("failed to seed user", zap.String("username", users[i].Username), zap.Error(err))
						return
					}
				}

				// Wire the area manager to both branches.
				manager, err := userRepo.FindByUsername(ctx, "manager.area1")
				if err != nil || manager == nil {
					logger.Error("seeded area manager not found")
					return
				}
				for _, b := range branches {
					b.AreaManagerID = manager.ID
					if err := branchRepo.Upsert(ctx, &b); err != nil {
						logger.Error("failed to set area manager", zap.String("code", b.Code), zap.Error(err))
						return
					}
				}

				logger.Info(fmt.Sprintf("✅ Seeded %d branches and %d users", len(branches), len(users)))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			user.NewUserRepository,
			branch.NewBranchRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
