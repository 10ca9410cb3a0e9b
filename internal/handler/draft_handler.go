package handler

import (
	"io"

	"go-product-admin/internal/form"
	"go-product-admin/internal/middleware"
	"go-product-admin/internal/model"
	"go-product-admin/internal/service"
	"go-product-admin/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

type DraftHandler struct {
	service        service.DraftService
	maxUploadBytes int64
}

func NewDraftHandler(s service.DraftService, maxUploadBytes int64) *DraftHandler {
	return &DraftHandler{service: s, maxUploadBytes: maxUploadBytes}
}

type openDraftRequest struct {
	ProductID string `json:"productId"`
}

func (h *DraftHandler) OpenDraft(c *fiber.Ctx) error {
	var req openDraftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}
	v, err := h.service.Open(c.UserContext(), req.ProductID, getUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(v)
}

func (h *DraftHandler) GetDraft(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.service.Get(id, getUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(v)
}

func (h *DraftHandler) PatchDraft(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.service.Patch(id, getUserID(c), c.Body())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(v)
}

func (h *DraftHandler) DiscardDraft(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.service.Discard(id, getUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DraftHandler) ValidateDraft(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	errs, err := h.service.Validate(id, getUserID(c), c.QueryBool("all"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"valid": len(errs) == 0, "errors": errs})
}

func (h *DraftHandler) GenerateVariants(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.service.GenerateVariants(id, getUserID(c), c.QueryBool("preserve"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(v)
}

func (h *DraftHandler) UpdateVariant(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	index, err := parseIndex(c)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.service.UpdateVariant(id, getUserID(c), index, c.Body())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(v)
}

// UploadImages stages every file in the multipart "images" field.
func (h *DraftHandler) UploadImages(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	mf, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Expected a multipart form with an images field"})
	}

	var staged []model.StagedFile
	for _, fh := range mf.File["images"] {
		file, err := fh.Open()
		if err != nil {
			return fail(c, apperr.Wrap(err))
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return fail(c, apperr.Wrap(err))
		}
		sf, err := form.StageUpload(fh.Filename, data, h.maxUploadBytes)
		if err != nil {
			return fail(c, err)
		}
		staged = append(staged, sf)
	}

	v, err := h.service.AddImages(id, getUserID(c), staged)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(v)
}

func (h *DraftHandler) RemoveImage(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	index, err := parseIndex(c)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.service.RemoveImage(id, getUserID(c), index)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(v)
}

func (h *DraftHandler) SetPrimaryImage(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	index, err := parseIndex(c)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.service.SetPrimaryImage(id, getUserID(c), index)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(v)
}

type imageAltRequest struct {
	Alt string `json:"alt"`
}

func (h *DraftHandler) UpdateImage(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	index, err := parseIndex(c)
	if err != nil {
		return fail(c, err)
	}
	var req imageAltRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	v, err := h.service.SetImageAlt(id, getUserID(c), index, req.Alt)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(v)
}

func (h *DraftHandler) PendingImage(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	f, err := h.service.PendingImage(id, getUserID(c), c.Params("handle"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(f.Data)
}

// Submit needs product:update for an existing product and product:create
// for a new one.
func (h *DraftHandler) Submit(c *fiber.Ctx) error {
	id, err := parseDraftID(c)
	if err != nil {
		return fail(c, err)
	}
	v, err := h.service.Get(id, getUserID(c))
	if err != nil {
		return fail(c, err)
	}
	required := middleware.PrivilegeProductCreate
	if v.ProductID != "" {
		required = middleware.PrivilegeProductUpdate
	}
	if !middleware.HasPrivilege(c, required) {
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden: requires '" + required + "' privilege"})
	}

	p, err := h.service.Submit(c.UserContext(), id, getUserID(c), getUserName(c))
	if err != nil {
		return fail(c, err)
	}
	status := fiber.StatusCreated
	msg := "Product created successfully"
	if v.ProductID != "" {
		status = fiber.StatusOK
		msg = "Product updated successfully"
	}
	return c.Status(status).JSON(fiber.Map{"message": msg, "data": p})
}
