package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go-product-admin/internal/cache"
	"go-product-admin/internal/client"
	"go-product-admin/internal/config"
	"go-product-admin/internal/middleware"
	"go-product-admin/internal/repository"
	"go-product-admin/internal/service"
	"go-product-admin/internal/ws"
	"go-product-admin/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secret   = []byte("handler-secret")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
)

// backend records what the product API received.
type backend struct {
	mu       sync.Mutex
	requests []string
	lastData map[string]any
	files    int
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/products/":
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			b.lastData = map[string]any{}
			json.Unmarshal([]byte(r.FormValue("data")), &b.lastData)
			b.files = len(r.MultipartForm.File["images"])
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id": 42, "name": "Trail Shoe"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/api/products/7/":
		io.WriteString(w, `{"id": 7, "name": "Mug", "sku": "MUG", "vendor": 2, "brand": "B", "categories": [5],
			"price": "12.00", "images": [{"id": 11, "url": "/media/a.jpg", "is_primary": true}]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/api/products/":
		io.WriteString(w, `[{"id": 7, "name": "Mug"}]`)
	case r.Method == http.MethodGet && r.URL.Path == "/api/categories/":
		io.WriteString(w, `[{"id": 1, "category_name": "Electronics"}]`)
	case r.Method == http.MethodGet && r.URL.Path == "/api/vendors/":
		io.WriteString(w, `[{"id": 3, "name": "TechGear"}]`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail": "Not found."}`)
	}
}

func newTestApp(t *testing.T) (*fiber.App, *backend) {
	t.Helper()
	be := &backend{}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BackendBaseURL:  srv.URL + "/api",
		BackendMediaURL: "http://media.test",
		BackendTimeout:  5 * time.Second,
		MaxUploadBytes:  1 << 20,
		Tags:            []string{"Sale"},
	}
	api := client.New(cfg)
	hub := ws.NewHub()

	drafts := NewDraftHandler(service.NewDraftService(repository.NewMemoryDraftRepo(), api, hub, cfg.BackendMediaURL, 0), cfg.MaxUploadBytes)
	products := NewProductHandler(service.NewProductService(api, hub))
	refs := NewReferenceHandler(service.NewReferenceService(api, cache.Nop{}, time.Minute, cfg.Tags), cfg.MaxUploadBytes)

	app := fiber.New()
	SetupRoutes(app.Group("/api/v1"), secret, NewAuthHandler(secret), drafts, products, refs)
	return app, be
}

func bearer(t *testing.T, privileges ...string) string {
	return bearerFor(t, "u-1", privileges...)
}

func bearerFor(t *testing.T, userID string, privileges ...string) string {
	tok, err := jwt.GenerateToken(secret, userID, "Ana", privileges, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body io.Reader, contentType string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func jsonBody(s string) io.Reader { return bytes.NewBufferString(s) }

func imageForm(t *testing.T, names ...string) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, n := range names {
		part, err := w.CreateFormFile("images", n)
		require.NoError(t, err)
		part.Write(pngBytes)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDraftRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := call(t, app, "POST", "/api/v1/drafts", "", nil, "")
	assert.Equal(t, 401, status)
}

func TestCreateProductFlow(t *testing.T) {
	app, be := newTestApp(t)
	auth := bearer(t, middleware.PrivilegeProductCreate)

	status, draft := call(t, app, "POST", "/api/v1/drafts", auth, nil, "")
	require.Equal(t, 201, status)
	id := draft["id"].(string)
	base := "/api/v1/drafts/" + id

	status, body := call(t, app, "PATCH", base, auth,
		jsonBody(`{"name":"Trail Shoe","sku":"TS","vendor":"3","brand":"Peak","categories":["1"],"compareAtPrice":100,"discount":25}`),
		fiber.MIMEApplicationJSON)
	require.Equal(t, 200, status)
	assert.Equal(t, 75.0, body["draft"].(map[string]any)["price"])

	form, ct := imageForm(t, "front.png", "side.png")
	status, body = call(t, app, "POST", base+"/images", auth, form, ct)
	require.Equal(t, 201, status, body)
	images := body["images"].([]any)
	require.Len(t, images, 2)
	first := images[0].(map[string]any)
	assert.Equal(t, true, first["isPrimary"])
	assert.Equal(t, true, first["pending"])

	status, _ = call(t, app, "DELETE", base+"/images/0", auth, nil, "")
	require.Equal(t, 200, status)

	status, body = call(t, app, "POST", base+"/submit", auth, nil, "")
	require.Equal(t, 201, status, body)
	assert.Equal(t, "Product created successfully", body["message"])

	be.mu.Lock()
	assert.Equal(t, float64(3), be.lastData["vendor"])
	assert.Equal(t, "trail-shoe", be.lastData["slug"])
	assert.Equal(t, 1, be.files)
	be.mu.Unlock()

	status, _ = call(t, app, "GET", base, auth, nil, "")
	assert.Equal(t, 404, status, "draft is gone after submit")
}

func TestSubmitInvalidDraft(t *testing.T) {
	app, be := newTestApp(t)
	auth := bearer(t, middleware.PrivilegeProductCreate)

	_, draft := call(t, app, "POST", "/api/v1/drafts", auth, nil, "")
	base := "/api/v1/drafts/" + draft["id"].(string)
	call(t, app, "PATCH", base, auth, jsonBody(`{"name":"X","sku":"X","vendor":"1","brand":"B"}`), fiber.MIMEApplicationJSON)

	status, body := call(t, app, "POST", base+"/submit", auth, nil, "")
	assert.Equal(t, 400, status)
	assert.Equal(t, "At least one category is required", body["error"])
	be.mu.Lock()
	assert.Empty(t, be.requests)
	be.mu.Unlock()
}

func TestSubmitNeedsMatchingPrivilege(t *testing.T) {
	app, _ := newTestApp(t)
	auth := bearer(t, middleware.PrivilegeProductCreate)

	status, draft := call(t, app, "POST", "/api/v1/drafts", auth, jsonBody(`{"productId":"7"}`), fiber.MIMEApplicationJSON)
	require.Equal(t, 201, status)
	assert.Equal(t, "7", draft["productId"])
	images := draft["images"].([]any)
	require.Len(t, images, 1)
	assert.Equal(t, "http://media.test/media/a.jpg", images[0].(map[string]any)["url"])

	status, _ = call(t, app, "POST", "/api/v1/drafts/"+draft["id"].(string)+"/submit", auth, nil, "")
	assert.Equal(t, 403, status)
}

func TestVariantsAndValidation(t *testing.T) {
	app, _ := newTestApp(t)
	auth := bearer(t)

	_, draft := call(t, app, "POST", "/api/v1/drafts", auth, nil, "")
	base := "/api/v1/drafts/" + draft["id"].(string)

	status, body := call(t, app, "PATCH", base, auth,
		jsonBody(`{"sku":"ABC","price":10,"hasVariants":true,"variantOptions":[{"name":"Size","values":["S","M"]},{"name":"Color","values":["Red","Blue","Green"]}]}`),
		fiber.MIMEApplicationJSON)
	require.Equal(t, 200, status, body)

	status, body = call(t, app, "POST", base+"/variants/generate", auth, nil, "")
	require.Equal(t, 200, status, body)
	variants := body["draft"].(map[string]any)["variants"].([]any)
	require.Len(t, variants, 6)
	assert.Equal(t, "M / Blue", variants[4].(map[string]any)["name"])

	status, body = call(t, app, "PATCH", base+"/variants/4", auth, jsonBody(`{"quantity":3}`), fiber.MIMEApplicationJSON)
	require.Equal(t, 200, status, body)

	status, body = call(t, app, "PATCH", base+"/variants/99", auth, jsonBody(`{}`), fiber.MIMEApplicationJSON)
	assert.Equal(t, 404, status)

	status, body = call(t, app, "PATCH", base, auth, jsonBody(`{"variants":[]}`), fiber.MIMEApplicationJSON)
	assert.Equal(t, 400, status)
	assert.Contains(t, body["fields"], "variants")

	status, body = call(t, app, "GET", base+"/validate?all=1", auth, nil, "")
	require.Equal(t, 200, status)
	assert.Equal(t, false, body["valid"])
	assert.Contains(t, body["errors"], "name")
}

func TestPendingImageServed(t *testing.T) {
	app, _ := newTestApp(t)
	auth := bearer(t)
	_, draft := call(t, app, "POST", "/api/v1/drafts", auth, nil, "")
	base := "/api/v1/drafts/" + draft["id"].(string)

	form, ct := imageForm(t, "front.png")
	_, body := call(t, app, "POST", base+"/images", auth, form, ct)
	url := body["images"].([]any)[0].(map[string]any)["url"].(string)

	req := httptest.NewRequest("GET", url, nil)
	req.Header.Set("Authorization", auth)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestRejectsNonImageUpload(t *testing.T) {
	app, _ := newTestApp(t)
	auth := bearer(t)
	_, draft := call(t, app, "POST", "/api/v1/drafts", auth, nil, "")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("images", "notes.txt")
	part.Write([]byte("plain text, not an image"))
	w.Close()

	status, _ := call(t, app, "POST", "/api/v1/drafts/"+draft["id"].(string)+"/images", auth, &buf, w.FormDataContentType())
	assert.Equal(t, 400, status)
}

func TestReferenceRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	auth := bearer(t)

	status, body := call(t, app, "GET", "/api/v1/references", auth, nil, "")
	require.Equal(t, 200, status)
	assert.Len(t, body["categories"], 1)
	assert.Len(t, body["vendors"], 1)
	assert.Equal(t, []any{"Sale"}, body["tags"])

	status, _ = call(t, app, "POST", "/api/v1/references/refresh", auth, nil, "")
	assert.Equal(t, 204, status)

	req := httptest.NewRequest("GET", "/api/v1/products", nil)
	req.Header.Set("Authorization", auth)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	status, _ = call(t, app, "DELETE", "/api/v1/products/9", auth, nil, "")
	assert.Equal(t, 403, status)
}

func TestUnknownDraftID(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := call(t, app, "GET", "/api/v1/drafts/not-a-uuid", bearer(t), nil, "")
	assert.Equal(t, 404, status)
	assert.Equal(t, "Draft not found", body["error"])
}

func TestAuthRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	tok := bearer(t, "product:create")

	status, body := call(t, app, "POST", "/api/v1/auth/validate-token", "", jsonBody(`{"token": "`+tok[len("Bearer "):]+`"}`), "application/json")
	assert.Equal(t, 200, status)
	assert.Equal(t, "u-1", body["user_id"])
	assert.Equal(t, []any{"product:create"}, body["privileges"])

	status, _ = call(t, app, "POST", "/api/v1/auth/validate-token", "", jsonBody(`{"token": "garbage"}`), "application/json")
	assert.Equal(t, 401, status)

	status, _ = call(t, app, "POST", "/api/v1/auth/validate-token", "", jsonBody(`{}`), "application/json")
	assert.Equal(t, 400, status)

	status, body = call(t, app, "GET", "/api/v1/auth/me", tok, nil, "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "Ana", body["name"])
}

func TestDraftHiddenFromOtherUsers(t *testing.T) {
	app, _ := newTestApp(t)
	ana := bearerFor(t, "u-1", "product:create")
	eve := bearerFor(t, "u-2", "product:create")

	_, draft := call(t, app, "POST", "/api/v1/drafts", ana, nil, "")
	base := "/api/v1/drafts/" + draft["id"].(string)
	form, ct := imageForm(t, "front.png")
	_, body := call(t, app, "POST", base+"/images", ana, form, ct)
	url := body["images"].([]any)[0].(map[string]any)["url"].(string)

	status, body := call(t, app, "GET", base, eve, nil, "")
	assert.Equal(t, 404, status)
	assert.Equal(t, "Draft not found", body["error"])

	status, _ = call(t, app, "PATCH", base, eve, jsonBody(`{"name":"Hijacked"}`), fiber.MIMEApplicationJSON)
	assert.Equal(t, 404, status)
	status, _ = call(t, app, "GET", url, eve, nil, "")
	assert.Equal(t, 404, status)
	status, _ = call(t, app, "POST", base+"/submit", eve, nil, "")
	assert.Equal(t, 404, status)
	status, _ = call(t, app, "DELETE", base, eve, nil, "")
	assert.Equal(t, 404, status)

	status, body = call(t, app, "GET", base, ana, nil, "")
	require.Equal(t, 200, status)
	assert.Empty(t, body["draft"].(map[string]any)["name"])
}
