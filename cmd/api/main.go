package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-approvals/internal/common/api"
	"go-approvals/internal/config"
	"go-approvals/internal/database"
	"go-approvals/internal/features/attachment"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/auth"
	"go-approvals/internal/features/branch"
	"go-approvals/internal/features/dirsync"
	"go-approvals/internal/features/ledger"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/reminder"
	"go-approvals/internal/features/request"
	"go-approvals/internal/features/routing"
	"go-approvals/internal/features/user"
	"go-approvals/internal/logger"
	"go-approvals/internal/middleware"
	"go-approvals/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, ledgerRepo ledger.LedgerRepository, requestRepo request.RequestRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := ledgerRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure ledger indexes: %v", err)
				}
				if err := requestRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure request indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			audit.NewAuditRepository,
			user.NewUserRepository,
			branch.NewBranchRepository,
			attachment.NewAttachmentRepository,
			notification.NewNotificationRepository,
			routing.NewRoutingRuleRepository,
			ledger.NewLedgerRepository,
			request.NewRequestRepository,
			dirsync.NewSyncSettingRepository,
			dirsync.NewSyncLogRepository,

			audit.NewAuditService,
			auth.NewAuthService,
			user.NewUserService,
			branch.NewBranchService,
			attachment.NewAttachmentService,
			notification.NewHub,
			notification.NewNotificationService,
			routing.NewRoutingService,
			request.NewChainResolver,
			request.NewRequestService,
			dirsync.NewSyncService,
			reminder.NewReminderService,

			// Interface Adapters to satisfy Fx
			func(s branch.BranchService) request.OrgDirectory { return s },
			func(r user.UserRepository) request.ReviewerFinder { return r },
			func(r user.UserRepository) audit.UserFinder { return r },
			func(s routing.RoutingService) request.RuleEvaluator { return s },
			func(s notification.NotificationService) request.Dispatcher { return s },

			// Initialize Controller
			auth.NewAuthController,
			user.NewUserController,
			branch.NewBranchController,
			audit.NewAuditController,
			attachment.NewAttachmentController,
			notification.NewNotificationController,
			routing.NewRoutingController,
			request.NewRequestController,
			dirsync.NewSyncController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(branch.NewBranchApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(attachment.NewAttachmentApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(routing.NewRoutingApi),
			AsRoute(request.NewRequestApi),
			AsRoute(dirsync.NewSyncApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, reminderService reminder.ReminderService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return reminderService.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return reminderService.Stop()
					},
				})
			},
			InitializeIndexes,
		),
	)

	app.Run()
}
