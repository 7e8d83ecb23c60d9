package request

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RequestApi struct {
	controller *RequestController
	config     *config.Config
}

func NewRequestApi(controller *RequestController, config *config.Config) *RequestApi {
	return &RequestApi{
		controller: controller,
		config:     config,
	}
}

func (h *RequestApi) Setup(app *fiber.App) {
	requests := app.Group("/api/requests", middleware.AuthMiddleware(h.config.SkipAuth))

	requests.Post("/", h.controller.Create)
	requests.Get("/", h.controller.ListMine)
	requests.Get("/queue", h.controller.Queue)
	requests.Get("/:id/status", h.controller.GetStatus)
	requests.Post("/:id/decisions", h.controller.SubmitDecision)
	requests.Put("/:id/chain", h.controller.EditChain)
	requests.Post("/:id/complete", h.controller.Complete)
	requests.Get("/:id/export", h.controller.Export)
}
