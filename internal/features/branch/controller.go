package branch

import (
	"go-approvals/internal/common/apperrors"

	"github.com/gofiber/fiber/v2"
)

type BranchController struct {
	Service BranchService
}

func NewBranchController(service BranchService) *BranchController {
	return &BranchController{Service: service}
}

// CreateBranch godoc
// @Summary Create a branch
// @Tags branches
// @Accept json
// @Produce json
// @Router /api/branches [post]
func (c *BranchController) CreateBranch(ctx *fiber.Ctx) error {
	var input Branch
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.CreateBranch(ctx.UserContext(), &input); err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(input)
}

// GetBranch godoc
// @Summary Get a branch
// @Tags branches
// @Produce json
// @Router /api/branches/{id} [get]
func (c *BranchController) GetBranch(ctx *fiber.Ctx) error {
	branch, err := c.Service.GetBranch(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(branch)
}

// ListBranches godoc
// @Summary List branches
// @Tags branches
// @Produce json
// @Router /api/branches [get]
func (c *BranchController) ListBranches(ctx *fiber.Ctx) error {
	branches, err := c.Service.ListBranches(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(branches)
}

// UpdateBranch godoc
// @Summary Update a branch
// @Tags branches
// @Accept json
// @Router /api/branches/{id} [put]
func (c *BranchController) UpdateBranch(ctx *fiber.Ctx) error {
	var input Branch
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.UpdateBranch(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"message": "Branch updated successfully"})
}

// DeleteBranch godoc
// @Summary Delete a branch
// @Tags branches
// @Router /api/branches/{id} [delete]
func (c *BranchController) DeleteBranch(ctx *fiber.Ctx) error {
	if err := c.Service.DeleteBranch(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
