package handler

import (
	"io"

	"go-product-admin/internal/form"
	"go-product-admin/internal/model"
	"go-product-admin/internal/service"
	"go-product-admin/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

type ReferenceHandler struct {
	service        service.ReferenceService
	maxUploadBytes int64
}

func NewReferenceHandler(s service.ReferenceService, maxUploadBytes int64) *ReferenceHandler {
	return &ReferenceHandler{service: s, maxUploadBytes: maxUploadBytes}
}

// GetReferences returns categories, vendors and tags in one response.
func (h *ReferenceHandler) GetReferences(c *fiber.Ctx) error {
	refs, err := h.service.All(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(refs)
}

func (h *ReferenceHandler) GetCategories(c *fiber.Ctx) error {
	cats, err := h.service.Categories(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cats)
}

func (h *ReferenceHandler) GetVendors(c *fiber.Ctx) error {
	vendors, err := h.service.Vendors(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(vendors)
}

func (h *ReferenceHandler) GetTags(c *fiber.Ctx) error {
	return c.JSON(h.service.Tags())
}

// RefreshReferences clears the cached category and vendor lists.
func (h *ReferenceHandler) RefreshReferences(c *fiber.Ctx) error {
	if err := h.service.Refresh(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type createCategoryRequest struct {
	Name           string `json:"name" form:"name"`
	ParentCategory string `json:"parentCategory" form:"parentCategory"`
}

// CreateCategory accepts JSON or a multipart form with an optional "image"
// file.
func (h *ReferenceHandler) CreateCategory(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	nc := model.NewCategory{
		Name:           req.Name,
		ParentCategory: req.ParentCategory,
		UserID:         getUserID(c),
	}

	if fh, err := c.FormFile("image"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return fail(c, apperr.Wrap(err))
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return fail(c, apperr.Wrap(err))
		}
		img, err := form.StageUpload(fh.Filename, data, h.maxUploadBytes)
		if err != nil {
			return fail(c, err)
		}
		nc.Image = &img
	}

	cand, err := h.service.CreateCategory(c.UserContext(), nc)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(cand)
}
