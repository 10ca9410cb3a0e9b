package handler

import (
	"log/slog"
	"strconv"

	"go-product-admin/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helper untuk ambil User Info dari JWT Context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return "system"
	}
	return userID
}

func getUserName(c *fiber.Ctx) string {
	userName, ok := c.Locals("user_name").(string)
	if !ok || userName == "" {
		return "Unknown"
	}
	return userName
}

func parseDraftID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFoundErr("Draft not found")
	}
	return id, nil
}

func parseIndex(c *fiber.Ctx) (int, error) {
	i, err := strconv.Atoi(c.Params("index"))
	if err != nil || i < 0 {
		return 0, apperr.InvalidErr("Index must be a non-negative number", nil)
	}
	return i, nil
}

// fail writes err as {"error": ..., "fields": ...} with the status its kind
// maps to. Internal details are logged, never returned.
func fail(c *fiber.Ctx, err error) error {
	status := apperr.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "err", err)
	}
	body := fiber.Map{"error": apperr.PublicMessage(err)}
	if ae, ok := apperr.As(err); ok && len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	return c.Status(status).JSON(body)
}
