package handler

import (
	"go-product-admin/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts the admin API under api. Everything except token
// validation requires a bearer token.
func SetupRoutes(api fiber.Router, secret []byte, auth *AuthHandler, drafts *DraftHandler, products *ProductHandler, refs *ReferenceHandler) {
	// Auth Routes
	a := api.Group("/auth")
	a.Post("/validate-token", auth.ValidateToken)
	a.Get("/me", middleware.RequireAuth(secret), auth.Me)

	protected := api.Group("", middleware.RequireAuth(secret))

	// Draft Routes
	d := protected.Group("/drafts")
	d.Post("/", drafts.OpenDraft)
	d.Get("/:id", drafts.GetDraft)
	d.Patch("/:id", drafts.PatchDraft)
	d.Delete("/:id", drafts.DiscardDraft)
	d.Get("/:id/validate", drafts.ValidateDraft)
	d.Post("/:id/variants/generate", drafts.GenerateVariants)
	d.Patch("/:id/variants/:index", drafts.UpdateVariant)
	d.Post("/:id/images", drafts.UploadImages)
	d.Get("/:id/images/pending/:handle", drafts.PendingImage)
	d.Delete("/:id/images/:index", drafts.RemoveImage)
	d.Put("/:id/images/:index/primary", drafts.SetPrimaryImage)
	d.Patch("/:id/images/:index", drafts.UpdateImage)
	d.Post("/:id/submit", middleware.RequireAnyPrivilege(middleware.PrivilegeProductCreate, middleware.PrivilegeProductUpdate), drafts.Submit)

	// Product Routes (pass-through to the backend)
	protected.Get("/products", products.GetProducts)
	protected.Delete("/products/:id", middleware.RequirePrivilege(middleware.PrivilegeProductDelete), products.DeleteProduct)
	protected.Post("/products/:id/stock", middleware.RequirePrivilege(middleware.PrivilegeProductUpdate), products.UpdateStock)

	// Reference Routes
	protected.Get("/references", refs.GetReferences)
	protected.Post("/references/refresh", refs.RefreshReferences)
	protected.Get("/categories", refs.GetCategories)
	protected.Post("/categories", middleware.RequirePrivilege(middleware.PrivilegeCategoryCreate), refs.CreateCategory)
	protected.Get("/vendors", refs.GetVendors)
	protected.Get("/tags", refs.GetTags)
}
