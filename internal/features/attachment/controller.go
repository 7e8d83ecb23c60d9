package attachment

import (
	"io"

	"go-approvals/internal/common/apperrors"
	"go-approvals/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AttachmentController struct {
	Service AttachmentService
}

func NewAttachmentController(service AttachmentService) *AttachmentController {
	return &AttachmentController{Service: service}
}

// Upload godoc
// @Summary Upload an attachment blob
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Router /api/attachments [post]
func (c *AttachmentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	kind := ctx.FormValue("kind", "supporting")

	f, err := fileHeader.Open()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	claims := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	uploadedBy, _ := primitive.ObjectIDFromHex(claims.UserID)

	att, err := c.Service.Store(ctx.UserContext(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), kind, data, uploadedBy)
	if err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(att)
}

// Download godoc
// @Summary Download an attachment by ref
// @Tags attachments
// @Router /api/attachments/{ref} [get]
func (c *AttachmentController) Download(ctx *fiber.Ctx) error {
	att, data, err := c.Service.Resolve(ctx.UserContext(), ctx.Params("ref"))
	if err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set(fiber.HeaderContentType, att.MimeType)
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+att.OriginalFilename+`"`)
	return ctx.Send(data)
}

// Delete godoc
// @Summary Delete an attachment
// @Tags attachments
// @Router /api/attachments/{ref} [delete]
func (c *AttachmentController) Delete(ctx *fiber.Ctx) error {
	claims := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	userID, _ := primitive.ObjectIDFromHex(claims.UserID)

	if err := c.Service.Delete(ctx.UserContext(), ctx.Params("ref"), userID); err != nil {
		return ctx.Status(apperrors.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
