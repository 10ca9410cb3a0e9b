// Package form holds the product draft while it is being edited: field
// updates, derived pricing, validation, variant generation and image staging.
// Nothing here talks to the network.
package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"go-product-admin/internal/model"
	"go-product-admin/pkg/apperr"
	"go-product-admin/pkg/validator"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Keys that may not be written through Apply; they have dedicated operations.
var managedKeys = map[string]string{
	"images":            "Images are managed through the image operations",
	"primaryImageIndex": "The primary image is set through the image operations",
	"variants":          "Variants are produced by Generate Variants and edited one at a time",
}

type Form struct {
	s   *model.DraftSession
	now func() time.Time
}

// New wraps an existing session. Mutations are applied to s in place.
func New(s *model.DraftSession) *Form {
	return &Form{s: s, now: time.Now}
}

// Open starts a session. A nil initial draft starts a new product; otherwise
// the draft is the hydrated product identified by productID.
func Open(initial *model.ProductDraft, productID string, originals map[string]string) *model.DraftSession {
	d := model.NewDraft()
	if initial != nil {
		d = *initial
	}
	now := time.Now()
	return &model.DraftSession{
		ID:             uuid.New(),
		ProductID:      productID,
		Draft:          d,
		Files:          []model.StagedFile{},
		Deletions:      []string{},
		OriginalImages: originals,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (f *Form) Session() *model.DraftSession { return f.s }

func (f *Form) Draft() *model.ProductDraft { return &f.s.Draft }

// Apply merges a partial draft document into the draft. Objects merge field
// by field, arrays replace, null clears optional values. Every key present in
// the patch is marked touched.
func (f *Form) Apply(patch []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(patch, &top); err != nil {
		return apperr.InvalidErr("Request body must be a JSON object", nil)
	}
	for key, msg := range managedKeys {
		if _, ok := top[key]; ok {
			return apperr.InvalidErr(msg, map[string]string{key: msg})
		}
	}

	var next model.ProductDraft
	if err := mergeInto(&next, f.s.Draft, patch); err != nil {
		return err
	}
	f.s.Draft = next

	paths := touchedPaths("", top)
	f.touch(paths...)

	_, hasCompare := top["compareAtPrice"]
	_, hasDiscount := top["discount"]
	if hasCompare || hasDiscount {
		f.derivePrice()
	}
	f.s.UpdatedAt = f.now()
	return nil
}

// derivePrice sets price from compareAtPrice and discount when both are set
// and non-zero. Editing price never feeds back into discount.
func (f *Form) derivePrice() {
	d := &f.s.Draft
	if d.CompareAtPrice == nil || d.Discount == nil || *d.CompareAtPrice == 0 || *d.Discount == 0 {
		return
	}
	d.Price = DerivePrice(*d.CompareAtPrice, *d.Discount)
}

// DerivePrice returns compareAt * (1 - discount/100) rounded to cents.
func DerivePrice(compareAt, discount float64) float64 {
	hundred := decimal.NewFromInt(100)
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discount).Div(hundred))
	price, _ := decimal.NewFromFloat(compareAt).Mul(factor).Round(2).Float64()
	return price
}

// Validate runs the full schema. It is the gate in front of submission.
func (f *Form) Validate() error {
	errs := validator.ValidateStruct(&f.s.Draft)
	if len(errs) == 0 {
		return nil
	}
	return apperr.InvalidErr(errs[0].Message, validator.FieldMessages(errs))
}

// ValidateTouched reports schema failures only for fields the user has
// edited, which is what the form shows while typing.
func (f *Form) ValidateTouched() map[string]string {
	out := map[string]string{}
	if len(f.s.Touched) == 0 {
		return out
	}
	for _, e := range validator.ValidateStruct(&f.s.Draft) {
		if !f.isTouched(e.Field) {
			continue
		}
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

func (f *Form) touch(paths ...string) {
	seen := make(map[string]struct{}, len(f.s.Touched))
	for _, p := range f.s.Touched {
		seen[p] = struct{}{}
	}
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		f.s.Touched = append(f.s.Touched, p)
	}
	sort.Strings(f.s.Touched)
}

func (f *Form) isTouched(field string) bool {
	for _, t := range f.s.Touched {
		if field == t || strings.HasPrefix(field, t+".") || strings.HasPrefix(field, t+"[") {
			return true
		}
	}
	return false
}

func touchedPaths(prefix string, obj map[string]json.RawMessage) []string {
	var out []string
	for key, raw := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
				out = append(out, touchedPaths(path, nested)...)
				continue
			}
		}
		out = append(out, path)
	}
	return out
}

// mergeInto writes current with patch merged over it into dst, which should
// be a zero value. Objects merge key by key, arrays and scalars replace, null
// removes the key.
func mergeInto(dst, current any, patch []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(patch, &top); err != nil || top == nil {
		return apperr.InvalidErr("Request body must be a JSON object", nil)
	}
	base, err := json.Marshal(current)
	if err != nil {
		return apperr.Wrap(err)
	}
	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return apperr.InvalidErr("Request body must be a JSON object", nil)
	}
	if err := json.Unmarshal(merged, dst); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			msg := validator.Label(ute.Field) + " must be " + typeName(ute.Type)
			return apperr.InvalidErr(msg, map[string]string{ute.Field: msg})
		}
		return apperr.InvalidErr("Request body does not match the product form", nil)
	}
	return nil
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a whole number"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "true or false"
	case reflect.String:
		return "text"
	case reflect.Slice, reflect.Array:
		return "a list"
	default:
		return "an object"
	}
}
