package user

import (
	"strconv"

	"go-approvals/internal/common/apperrors"
	"go-approvals/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{Service: service}
}

// CreateUser godoc
// @Summary Create a reviewer/user
// @Tags users
// @Accept json
// @Produce json
// @Router /api/users [post]
func (c *UserController) CreateUser(ctx *fiber.Ctx) error {
	var input models.User
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.CreateUser(ctx.UserContext(), &input); err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(input)
}

// GetUser godoc
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *fiber.Ctx) error {
	user, err := c.Service.GetUser(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Router /api/users [get]
func (c *UserController) ListUsers(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filter := map[string]interface{}{}
	if branch := ctx.Query("branch_id"); branch != "" {
		filter["branch_id"] = branch
	}
	if approver := ctx.Query("approver"); approver != "" {
		filter["approver"] = approver == "true"
	}

	users, total, err := c.Service.ListUsers(ctx.UserContext(), filter, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// UpdateUser godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Router /api/users/{id} [put]
func (c *UserController) UpdateUser(ctx *fiber.Ctx) error {
	var input models.User
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.UpdateUser(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"message": "User updated successfully"})
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Router /api/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *fiber.Ctx) error {
	if err := c.Service.DeleteUser(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
