// Package client talks to the product backend's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go-product-admin/internal/config"
	"go-product-admin/internal/model"
	"go-product-admin/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

const unavailableMsg = "The product service is unavailable. Please try again."

type ProductAPI interface {
	CreateProduct(ctx context.Context, p model.ProductPayload, files []model.StagedFile) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, p model.ProductPayload, files []model.StagedFile, deletions []string) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateStock(ctx context.Context, id string, u model.StockUpdate) (*model.Product, error)
}

type ReferenceAPI interface {
	ListCategories(ctx context.Context) ([]model.Candidate, error)
	CreateCategory(ctx context.Context, c model.NewCategory) (*model.Candidate, error)
	ListVendors(ctx context.Context) ([]model.Candidate, error)
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BackendBaseURL, "/"),
		token:   cfg.BackendToken,
		timeout: cfg.BackendTimeout,
	}
}

func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/") + "/"
}

// CreateProduct posts the payload as a multipart form: a JSON "data" field
// plus one "images" part per staged file.
func (c *Client) CreateProduct(ctx context.Context, p model.ProductPayload, files []model.StagedFile) (*model.Product, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	a := fiber.Post(c.url("products"))
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.SetBytesV("data", data)
	multipart(a, args, files)

	var out model.Product
	if _, err := c.do(ctx, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct patches product id. With nothing staged and nothing to
// delete the payload goes as plain JSON; otherwise as a multipart form that
// also carries existing_images and repeated delete_images fields.
func (c *Client) UpdateProduct(ctx context.Context, id string, p model.ProductPayload, files []model.StagedFile, deletions []string) (*model.Product, error) {
	a := fiber.Patch(c.url("products", id))
	if len(files) == 0 && len(deletions) == 0 {
		a.JSON(p)
	} else {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		existing, err := json.Marshal(p.ExistingImages)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		args := fiber.AcquireArgs()
		defer fiber.ReleaseArgs(args)
		args.SetBytesV("data", data)
		args.SetBytesV("existing_images", existing)
		for _, imageID := range deletions {
			args.Add("delete_images", imageID)
		}
		multipart(a, args, files)
	}

	var out model.Product
	if _, err := c.do(ctx, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var out model.Product
	code, err := c.do(ctx, fiber.Get(c.url("products", id)), &out)
	if code == fiber.StatusNotFound {
		return nil, apperr.NotFoundErr("Product not found")
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, fiber.Get(c.url("products")), &raw); err != nil {
		return nil, err
	}
	var out []model.Product
	if err := decodeList(raw, &out); err != nil {
		return nil, apperr.UpstreamErr(unavailableMsg, 0, err)
	}
	return out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	code, err := c.do(ctx, fiber.Delete(c.url("products", id)), nil)
	if code == fiber.StatusNotFound {
		return apperr.NotFoundErr("Product not found")
	}
	return err
}

func (c *Client) UpdateStock(ctx context.Context, id string, u model.StockUpdate) (*model.Product, error) {
	a := fiber.Post(c.url("products", id, "update_stock"))
	a.JSON(u)
	var out model.Product
	if _, err := c.do(ctx, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type backendRef struct {
	ID           model.RefID `json:"id"`
	Name         string      `json:"name"`
	CategoryName string      `json:"category_name"`
}

func (r backendRef) candidate() model.Candidate {
	name := r.Name
	if name == "" {
		name = r.CategoryName
	}
	return model.Candidate{ID: r.ID.String(), Name: name}
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Candidate, error) {
	return c.listRefs(ctx, "categories")
}

func (c *Client) ListVendors(ctx context.Context) ([]model.Candidate, error) {
	return c.listRefs(ctx, "vendors")
}

func (c *Client) listRefs(ctx context.Context, resource string) ([]model.Candidate, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, fiber.Get(c.url(resource)), &raw); err != nil {
		return nil, err
	}
	var refs []backendRef
	if err := decodeList(raw, &refs); err != nil {
		return nil, apperr.UpstreamErr(unavailableMsg, 0, err)
	}
	out := make([]model.Candidate, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.candidate())
	}
	return out, nil
}

// CreateCategory posts category_name, parent_category, user and an optional
// image as a multipart form.
func (c *Client) CreateCategory(ctx context.Context, nc model.NewCategory) (*model.Candidate, error) {
	a := fiber.Post(c.url("categories"))
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("category_name", nc.Name)
	if nc.ParentCategory != "" {
		args.Set("parent_category", nc.ParentCategory)
	}
	if nc.UserID != "" {
		args.Set("user", nc.UserID)
	}
	if nc.Image != nil {
		a.FileData(&fiber.FormFile{Fieldname: "image", Name: nc.Image.Filename, Content: nc.Image.Data})
	}
	a.MultipartForm(args)

	var ref backendRef
	if _, err := c.do(ctx, a, &ref); err != nil {
		return nil, err
	}
	cand := ref.candidate()
	if cand.Name == "" {
		cand.Name = nc.Name
	}
	return &cand, nil
}

// multipart attaches files as "images" parts and writes the form. Files
// must be attached before the form is written.
func multipart(a *fiber.Agent, args *fiber.Args, files []model.StagedFile) {
	for _, f := range files {
		name := f.Filename
		if name == "" {
			name = f.Handle
		}
		a.FileData(&fiber.FormFile{Fieldname: "images", Name: name, Content: f.Data})
	}
	a.MultipartForm(args)
}

// do sends the request and decodes a 2xx JSON body into out. The returned
// status is 0 when the backend could not be reached.
func (c *Client) do(ctx context.Context, a *fiber.Agent, out any) (int, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return 0, apperr.UpstreamErr(unavailableMsg, 0, err)
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	a.Timeout(c.timeoutFor(ctx))
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return 0, apperr.Wrap(err)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, apperr.UpstreamErr(unavailableMsg, 0, errors.Join(errs...))
	}
	if code < 200 || code >= 300 {
		return code, apperr.UpstreamErr(ErrorMessage(code, body), code, fmt.Errorf("backend answered %d", code))
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return code, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return code, apperr.UpstreamErr("Response is not JSON", code, err)
	}
	return code, nil
}

func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	t := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); t <= 0 || left < t {
			t = left
		}
	}
	if t <= 0 {
		t = time.Millisecond
	}
	return t
}

// decodeList accepts a bare JSON array or a paginated {"results": [...]}.
func decodeList(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		raw = page.Results
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("[]")
	}
	return json.Unmarshal(raw, out)
}

// ErrorMessage extracts a user-facing message from an error response:
// detail, then error, then flattened field errors, then the status text.
func ErrorMessage(code int, body []byte) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", code)
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
		return fallback
	}
	for _, key := range []string{"detail", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		if msg := flatten(obj[k]); msg != "" {
			parts = append(parts, k+": "+msg)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return fallback
}

func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var out []string
		for _, item := range t {
			if s := flatten(item); s != "" {
				out = append(out, s)
			}
		}
		return strings.Join(out, " ")
	case map[string]any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return ""
	}
}
