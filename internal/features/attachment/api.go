package attachment

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AttachmentApi struct {
	controller *AttachmentController
	config     *config.Config
}

func NewAttachmentApi(controller *AttachmentController, config *config.Config) *AttachmentApi {
	return &AttachmentApi{
		controller: controller,
		config:     config,
	}
}

func (h *AttachmentApi) Setup(app *fiber.App) {
	group := app.Group("/api/attachments", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Upload)
	group.Get("/:ref", h.controller.Download)
	group.Delete("/:ref", h.controller.Delete)
}
