package routing

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

type RoutingController struct {
	service RoutingService
}

func NewRoutingController(service RoutingService) *RoutingController {
	return &RoutingController{
		service: service,
	}
}

// CreateRule creates a routing rule
// @Summary Create routing rule
// @Description Create a new chain routing rule script
// @Tags Routing
// @Accept json
// @Produce json
// @Param rule body RoutingRule true "Routing rule"
// @Success 201 {object} RoutingRule
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/routing-rules [post]
func (c *RoutingController) CreateRule(ctx *fiber.Ctx) error {
	var rule RoutingRule
	if err := ctx.BodyParser(&rule); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	created, err := c.service.CreateRule(ctx.Context(), &rule)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// GetRule retrieves a routing rule by ID
// @Summary Get routing rule
// @Tags Routing
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} RoutingRule
// @Failure 404 {object} map[string]string
// @Router /api/routing-rules/{id} [get]
func (c *RoutingController) GetRule(ctx *fiber.Ctx) error {
	rule, err := c.service.GetRule(ctx.Context(), ctx.Params("id"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule not found"})
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(rule)
}

// ListRules lists all routing rules
// @Summary List routing rules
// @Tags Routing
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /api/routing-rules [get]
func (c *RoutingController) ListRules(ctx *fiber.Ctx) error {
	rules, err := c.service.ListRules(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"data": rules})
}

// UpdateRule updates a routing rule
// @Summary Update routing rule
// @Tags Routing
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param rule body RoutingRule true "Routing rule"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/routing-rules/{id} [put]
func (c *RoutingController) UpdateRule(ctx *fiber.Ctx) error {
	var rule RoutingRule
	if err := ctx.BodyParser(&rule); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateRule(ctx.Context(), ctx.Params("id"), &rule); err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule not found"})
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}

// DeleteRule deletes a routing rule
// @Summary Delete routing rule
// @Tags Routing
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/routing-rules/{id} [delete]
func (c *RoutingController) DeleteRule(ctx *fiber.Ctx) error {
	if err := c.service.DeleteRule(ctx.Context(), ctx.Params("id")); err != nil {
		if err == mongo.ErrNoDocuments {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule not found"})
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}
