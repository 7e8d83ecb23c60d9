package branch

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BranchApi struct {
	controller *BranchController
	config     *config.Config
}

func NewBranchApi(controller *BranchController, config *config.Config) *BranchApi {
	return &BranchApi{
		controller: controller,
		config:     config,
	}
}

func (h *BranchApi) Setup(app *fiber.App) {
	group := app.Group("/api/branches", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.CreateBranch)
	group.Get("/", h.controller.ListBranches)
	group.Get("/:id", h.controller.GetBranch)
	group.Put("/:id", h.controller.UpdateBranch)
	group.Delete("/:id", h.controller.DeleteBranch)
}
