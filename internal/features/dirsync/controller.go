package dirsync

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SyncController struct {
	service SyncService
}

func NewSyncController(service SyncService) *SyncController {
	return &SyncController{
		service: service,
	}
}

// CreateSetting creates a sync setting
// @Summary Create sync setting
// @Description Register an HR Postgres source to pull the directory from
// @Tags DirSync
// @Accept json
// @Produce json
// @Param setting body SyncSetting true "Sync setting"
// @Success 201 {object} SyncSetting
// @Failure 400 {object} map[string]string
// @Router /api/dirsync/settings [post]
func (c *SyncController) CreateSetting(ctx *fiber.Ctx) error {
	var setting SyncSetting
	if err := ctx.BodyParser(&setting); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.CreateSetting(ctx.Context(), &setting); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(setting)
}

// ListSettings lists sync settings
// @Summary List sync settings
// @Tags DirSync
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/dirsync/settings [get]
func (c *SyncController) ListSettings(ctx *fiber.Ctx) error {
	settings, err := c.service.ListSettings(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"data": settings})
}

// UpdateSetting updates a sync setting
// @Summary Update sync setting
// @Tags DirSync
// @Accept json
// @Produce json
// @Param id path string true "Setting ID"
// @Param setting body SyncSetting true "Sync setting"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/dirsync/settings/{id} [put]
func (c *SyncController) UpdateSetting(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid setting ID"})
	}

	var setting SyncSetting
	if err := ctx.BodyParser(&setting); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateSetting(ctx.Context(), id, &setting); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}

// DeleteSetting deletes a sync setting
// @Summary Delete sync setting
// @Tags DirSync
// @Produce json
// @Param id path string true "Setting ID"
// @Success 200 {object} map[string]string
// @Router /api/dirsync/settings/{id} [delete]
func (c *SyncController) DeleteSetting(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid setting ID"})
	}

	if err := c.service.DeleteSetting(ctx.Context(), id); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}

// RunSync triggers a directory pull
// @Summary Run directory sync
// @Description Pull branches and reviewers from the configured HR Postgres
// @Tags DirSync
// @Produce json
// @Param id path string true "Setting ID"
// @Success 200 {object} SyncLog
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/dirsync/settings/{id}/run [post]
func (c *SyncController) RunSync(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid setting ID"})
	}

	syncLog, err := c.service.RunSync(ctx.Context(), id)
	if err != nil {
		if syncLog != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error(), "log": syncLog})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(syncLog)
}

// GetSyncLogs lists past sync runs for a setting
// @Summary List sync logs
// @Tags DirSync
// @Produce json
// @Param id path string true "Setting ID"
// @Param limit query int false "Max entries"
// @Success 200 {object} map[string]interface{}
// @Router /api/dirsync/settings/{id}/logs [get]
func (c *SyncController) GetSyncLogs(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid setting ID"})
	}

	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)
	logs, err := c.service.GetSyncLogs(ctx.Context(), id, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"data": logs})
}
