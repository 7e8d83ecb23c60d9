package notification

import (
	"go-approvals/internal/config"
	"go-approvals/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) *NotificationApi {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	notifications := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))

	notifications.Get("/", h.controller.List)
	notifications.Get("/unread-count", h.controller.GetUnreadCount)
	notifications.Put("/:id/read", h.controller.MarkAsRead)
	notifications.Post("/mark-all-read", h.controller.MarkAllAsRead)

	ws := app.Group("/ws", middleware.AuthMiddleware(h.config.SkipAuth))
	ws.Use("/notifications", h.controller.StreamUpgrade)
	ws.Get("/notifications", h.controller.Stream())
}
