package dirsync

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
}

func NewSyncApi(controller *SyncController, config *config.Config) *SyncApi {
	return &SyncApi{
		controller: controller,
		config:     config,
	}
}

func (h *SyncApi) Setup(app *fiber.App) {
	settings := app.Group("/api/dirsync/settings", middleware.AuthMiddleware(h.config.SkipAuth))

	settings.Post("/", h.controller.CreateSetting)
	settings.Get("/", h.controller.ListSettings)
	settings.Put("/:id", h.controller.UpdateSetting)
	settings.Delete("/:id", h.controller.DeleteSetting)
	settings.Post("/:id/run", h.controller.RunSync)
	settings.Get("/:id/logs", h.controller.GetSyncLogs)
}
