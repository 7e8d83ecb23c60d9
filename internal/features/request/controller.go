package request

import (
	"fmt"
	"strconv"

	"go-approvals/internal/common/apperrors"
	"go-approvals/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestController struct {
	service RequestService
}

func NewRequestController(service RequestService) *RequestController {
	return &RequestController{
		service: service,
	}
}

func claimsFrom(ctx *fiber.Ctx) (userID, branchID primitive.ObjectID, err error) {
	claims := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	userID, err = primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return
	}
	// Branch may be absent for head-office accounts
	branchID, _ = primitive.ObjectIDFromHex(claims.BranchID)
	return
}

func respondError(ctx *fiber.Ctx, err error) error {
	return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}

// Create creates an approval request
// @Summary Create request
// @Description Create a new approval request with a default or custom chain
// @Tags Requests
// @Accept json
// @Produce json
// @Param request body CreateRequestBody true "Request"
// @Success 201 {object} Request
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/requests [post]
func (c *RequestController) Create(ctx *fiber.Ctx) error {
	userID, branchID, err := claimsFrom(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body CreateRequestBody
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.PayloadRef == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payload_ref is required"})
	}

	req, err := c.service.CreateRequest(ctx.Context(), userID, branchID, body)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(req)
}

// SubmitDecision records one reviewer's decision
// @Summary Submit decision
// @Description Approve or disapprove a request as the authenticated reviewer
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param decision body DecisionBody true "Decision"
// @Success 200 {object} StatusView
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/requests/{id}/decisions [post]
func (c *RequestController) SubmitDecision(ctx *fiber.Ctx) error {
	userID, _, err := claimsFrom(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requestID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var body DecisionBody
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.Action != "approve" && body.Action != "disapprove" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action must be approve or disapprove"})
	}

	view, err := c.service.SubmitDecision(ctx.Context(), requestID, userID, body)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(view)
}

// GetStatus returns the aggregate status of a request
// @Summary Get request status
// @Description Aggregate status, pending approver and decision snapshot
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} StatusView
// @Failure 404 {object} map[string]string
// @Router /api/requests/{id}/status [get]
func (c *RequestController) GetStatus(ctx *fiber.Ctx) error {
	requestID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	view, err := c.service.GetStatus(ctx.Context(), requestID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(view)
}

// EditChain replaces the approver chain
// @Summary Edit approver chain
// @Description Replace the chain while the request is pending or disapproved; starts a fresh review cycle
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param chain body ChainSpec true "Chain spec"
// @Success 200 {object} Request
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/requests/{id}/chain [put]
func (c *RequestController) EditChain(ctx *fiber.Ctx) error {
	userID, _, err := claimsFrom(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requestID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var spec ChainSpec
	if err := ctx.BodyParser(&spec); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req, err := c.service.EditChain(ctx.Context(), requestID, userID, spec)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(req)
}

// Complete marks an approved request as fulfilled
// @Summary Complete request
// @Description Transition an approved request to completed
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} Request
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/requests/{id}/complete [post]
func (c *RequestController) Complete(ctx *fiber.Ctx) error {
	userID, _, err := claimsFrom(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requestID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	req, err := c.service.MarkCompleted(ctx.Context(), requestID, userID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(req)
}

// ListMine lists the authenticated requester's requests
// @Summary List my requests
// @Tags Requests
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Router /api/requests [get]
func (c *RequestController) ListMine(ctx *fiber.Ctx) error {
	userID, _, err := claimsFrom(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "10"), 10, 64)

	requests, total, err := c.service.ListByRequester(ctx.Context(), userID, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  requests,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Queue lists requests waiting on the authenticated reviewer
// @Summary Reviewer queue
// @Tags Requests
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/requests/queue [get]
func (c *RequestController) Queue(ctx *fiber.Ctx) error {
	userID, _, err := claimsFrom(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requests, err := c.service.ReviewerQueue(ctx.Context(), userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"data": requests})
}

// Export downloads the decision history as xlsx
// @Summary Export decision history
// @Tags Requests
// @Produce application/octet-stream
// @Param id path string true "Request ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /api/requests/{id}/export [get]
func (c *RequestController) Export(ctx *fiber.Ctx) error {
	requestID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	data, filename, err := c.service.ExportHistory(ctx.Context(), requestID)
	if err != nil {
		return respondError(ctx, err)
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Send(data)
}
