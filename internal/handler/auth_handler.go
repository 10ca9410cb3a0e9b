package handler

import (
	"go-product-admin/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler exposes token checks for the admin frontend. Tokens are minted
// by the identity provider (or cmd/issue-token), never here.
type AuthHandler struct {
	secret []byte
}

func NewAuthHandler(secret []byte) *AuthHandler {
	return &AuthHandler{secret: secret}
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// TokenValidationResponse describes the caller behind a valid token.
type TokenValidationResponse struct {
	UserID     string   `json:"user_id"`
	Name       string   `json:"name"`
	Privileges []string `json:"privileges"`
	ExpiresAt  int64    `json:"expires_at,omitempty"`
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.Token == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Token is required"})
	}

	claims, err := jwt.ValidateToken(h.secret, req.Token)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	resp := TokenValidationResponse{
		UserID:     claims.UserID,
		Name:       claims.Name,
		Privileges: claims.Privileges,
	}
	if resp.Privileges == nil {
		resp.Privileges = []string{}
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return c.JSON(resp)
}

// Me returns the authenticated caller.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	privileges, _ := c.Locals("user_privileges").([]string)
	if privileges == nil {
		privileges = []string{}
	}
	return c.JSON(TokenValidationResponse{
		UserID:     getUserID(c),
		Name:       getUserName(c),
		Privileges: privileges,
	})
}
