package routing

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoutingApi struct {
	controller *RoutingController
	config     *config.Config
}

func NewRoutingApi(controller *RoutingController, config *config.Config) *RoutingApi {
	return &RoutingApi{
		controller: controller,
		config:     config,
	}
}

func (h *RoutingApi) Setup(app *fiber.App) {
	rules := app.Group("/api/routing-rules", middleware.AuthMiddleware(h.config.SkipAuth))

	rules.Post("/", h.controller.CreateRule)
	rules.Get("/", h.controller.ListRules)
	rules.Get("/:id", h.controller.GetRule)
	rules.Put("/:id", h.controller.UpdateRule)
	rules.Delete("/:id", h.controller.DeleteRule)
}
