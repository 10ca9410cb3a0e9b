// Package payload turns a draft session into the request the product backend
// expects, and a backend product back into a draft for editing.
package payload

import (
	"fmt"
	"strconv"
	"strings"

	"go-product-admin/internal/form"
	"go-product-admin/internal/model"
	"go-product-admin/pkg/apperr"

	"github.com/gosimple/slug"
)

// Submission is everything the create/update call needs.
type Submission struct {
	ProductID string
	Payload   model.ProductPayload
	Files     []model.StagedFile
	Deletions []string
}

func (s Submission) IsUpdate() bool { return s.ProductID != "" }

// Build assembles the backend payload from the session. It performs no
// schema validation; callers validate the draft first.
func Build(s *model.DraftSession) (Submission, error) {
	d := &s.Draft

	vendor, err := strconv.ParseInt(strings.TrimSpace(d.Vendor), 10, 64)
	if err != nil {
		msg := "Vendor must be a numeric id"
		return Submission{}, apperr.InvalidErr(msg, map[string]string{"vendor": msg})
	}
	categories := make([]int64, 0, len(d.Categories))
	for i, c := range d.Categories {
		id, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			msg := fmt.Sprintf("Category %q is not a numeric id", c)
			return Submission{}, apperr.InvalidErr(msg, map[string]string{fmt.Sprintf("categories[%d]", i): msg})
		}
		categories = append(categories, id)
	}

	images, existing, files := buildImages(s)

	p := model.ProductPayload{
		Name:             d.Name,
		Slug:             d.Slug,
		SKU:              d.SKU,
		Vendor:           vendor,
		Brand:            d.Brand,
		Categories:       categories,
		Tags:             orEmpty(d.Tags),
		ShortDescription: d.ShortDescription,
		FullDescription:  d.FullDescription,
		Features:         orEmpty(d.Features),
		Specifications:   d.Specifications,
		Price:            d.Price,
		CompareAtPrice:   nonZero(d.CompareAtPrice),
		Discount:         nonZero(d.Discount),
		Taxable:          d.Taxable,
		TaxCode:          d.TaxCode,
		HasVariants:      d.HasVariants,
		VariantOptions:   cleanOptions(d.VariantOptions),
		Variants:         []model.VariantPayload{},
		Inventory: model.InventoryPayload{
			Quantity:          d.Inventory.Quantity,
			TrackInventory:    d.Inventory.TrackInventory,
			AllowBackorders:   d.Inventory.AllowBackorders,
			LowStockThreshold: d.Inventory.LowStockThreshold,
		},
		Weight:         d.Shipping.Weight,
		WeightUnit:     or(d.Shipping.WeightUnit, "kg"),
		Length:         d.Shipping.Dimensions.Length,
		Width:          d.Shipping.Dimensions.Width,
		Height:         d.Shipping.Dimensions.Height,
		DimensionsUnit: or(d.Shipping.Dimensions.Unit, "cm"),
		ShippingClass:  d.Shipping.ShippingClass,
		FreeShipping:   d.Shipping.FreeShipping,
		ShippingNote:   d.Shipping.ShippingNote,
		Status:         or(string(d.Status), string(model.StatusDraft)),
		Visibility:     or(string(d.Visibility), string(model.VisibilityVisible)),
		PublishDate:    d.PublishDate,

		PrimaryImageIndex: d.PrimaryImageIndex,
		Images:            images,
		ExistingImages:    existing,
	}
	if p.Slug == "" {
		p.Slug = slug.Make(d.Name)
	}
	if p.Specifications == nil {
		p.Specifications = []model.Specification{}
	}
	// Stale variants from an earlier toggle are never sent.
	if d.HasVariants {
		for _, v := range d.Variants {
			p.Variants = append(p.Variants, model.VariantPayload{
				ID:             v.ID,
				Name:           v.Name,
				SKU:            v.SKU,
				Price:          v.Price,
				CompareAtPrice: nonZero(v.CompareAtPrice),
				Quantity:       v.Quantity,
				Image:          v.Image,
				Unit:           v.Unit,
				Attributes:     orEmptyMap(v.Attributes),
			})
		}
	}

	sub := Submission{Payload: p, Files: files, Deletions: []string{}}
	// A new product has nothing stored to delete.
	if s.IsUpdate() {
		sub.ProductID = s.ProductID
		sub.Deletions = append(sub.Deletions, s.Deletions...)
	}
	return sub, nil
}

// buildImages resolves every image entry to the reference the backend sees.
// Persisted images use the URL they were fetched with; pending ones use their
// local reference and contribute their staged file.
func buildImages(s *model.DraftSession) ([]model.ImagePayload, []model.ExistingImagePayload, []model.StagedFile) {
	d := &s.Draft
	images := make([]model.ImagePayload, 0, len(d.Images))
	existing := []model.ExistingImagePayload{}
	files := []model.StagedFile{}

	for i, img := range d.Images {
		primary := form.IsPrimary(d, i)
		switch src := img.Source.(type) {
		case model.Persisted:
			url := src.RemotePath
			if orig, ok := s.OriginalImages[src.ID]; ok && src.ID != "" {
				url = orig
			}
			images = append(images, model.ImagePayload{URL: url, Alt: img.Alt, IsPrimary: primary, ID: src.ID})
			if src.ID != "" {
				existing = append(existing, model.ExistingImagePayload{
					ID:        src.ID,
					Alt:       img.Alt,
					Order:     i,
					IsPrimary: primary,
				})
			}
		case model.Pending:
			images = append(images, model.ImagePayload{URL: form.LocalRef(src.Handle), Alt: img.Alt, IsPrimary: primary})
			if f, ok := s.File(src.Handle); ok {
				files = append(files, f)
			}
		}
	}
	return images, existing, files
}

func cleanOptions(options []model.VariantOption) []model.VariantOption {
	out := make([]model.VariantOption, 0, len(options))
	for _, opt := range options {
		values := make([]string, 0, len(opt.Values))
		for _, v := range opt.Values {
			if strings.TrimSpace(v) != "" {
				values = append(values, v)
			}
		}
		out = append(out, model.VariantOption{Name: opt.Name, Values: values, Unit: opt.Unit})
	}
	return out
}

// ToDraft maps a backend product into an editable draft. The second return
// value maps persisted image ids to the URLs they were fetched with.
func ToDraft(p model.Product) (model.ProductDraft, map[string]string) {
	d := model.NewDraft()
	d.Slug = p.Slug
	d.Name = p.Name
	d.SKU = p.SKU
	d.Vendor = p.Vendor.String()
	d.Brand = p.Brand
	for _, c := range p.Categories {
		d.Categories = append(d.Categories, c.String())
	}
	d.Tags = append(d.Tags, p.Tags...)
	d.ShortDescription = p.ShortDescription
	d.FullDescription = p.FullDescription
	d.Features = append(d.Features, p.Features...)
	d.Specifications = append(d.Specifications, p.Specifications...)

	d.Price = float64(p.Price)
	d.CompareAtPrice = amount(p.CompareAtPrice)
	d.Discount = amount(p.Discount)
	d.Taxable = p.Taxable
	d.TaxCode = p.TaxCode

	d.Inventory = model.Inventory{
		TrackInventory:    p.Inventory.TrackInventory,
		Quantity:          p.Inventory.Quantity,
		AllowBackorders:   p.Inventory.AllowBackorders,
		LowStockThreshold: p.Inventory.LowStockThreshold,
	}

	d.HasVariants = p.HasVariants
	d.VariantOptions = append(d.VariantOptions, p.VariantOptions...)
	for _, v := range p.Variants {
		d.Variants = append(d.Variants, model.Variant{
			ID:             v.ID.String(),
			Name:           v.Name,
			SKU:            v.SKU,
			Price:          float64(v.Price),
			CompareAtPrice: amount(v.CompareAtPrice),
			Quantity:       v.Quantity,
			Image:          v.Image,
			Unit:           v.Unit,
			Attributes:     orEmptyMap(v.Attributes),
		})
	}

	d.Shipping = model.Shipping{
		Weight:     amount(p.Weight),
		WeightUnit: or(p.WeightUnit, "kg"),
		Dimensions: model.Dimensions{
			Length: amount(p.Length),
			Width:  amount(p.Width),
			Height: amount(p.Height),
			Unit:   or(p.DimensionsUnit, "cm"),
		},
		ShippingClass: p.ShippingClass,
		FreeShipping:  p.FreeShipping,
		ShippingNote:  p.ShippingNote,
	}
	if p.Status != "" {
		d.Status = model.Status(p.Status)
	}
	if p.Visibility != "" {
		d.Visibility = model.Visibility(p.Visibility)
	}
	d.PublishDate = p.PublishDate

	originals := make(map[string]string, len(p.Images))
	primary := -1
	for i, img := range p.Images {
		id := img.ID.String()
		entry := model.ImageEntry{Alt: img.Alt}
		switch {
		case id != "":
			entry.Source = model.Persisted{ID: id, RemotePath: img.URL}
			originals[id] = img.URL
		case strings.HasPrefix(img.URL, form.LocalRefScheme):
			entry.Source = model.Pending{Handle: strings.TrimPrefix(img.URL, form.LocalRefScheme)}
		default:
			entry.Source = model.Persisted{RemotePath: img.URL}
		}
		d.Images = append(d.Images, entry)
		if primary < 0 && img.Primary() {
			primary = i
		}
	}
	if p.PrimaryImageIndex != nil && *p.PrimaryImageIndex >= 0 && *p.PrimaryImageIndex < len(d.Images) {
		primary = *p.PrimaryImageIndex
	}
	if primary >= 0 {
		d.PrimaryImageIndex = &primary
	}
	return d, originals
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// nonZero maps unset and zero amounts to null.
func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	c := *v
	return &c
}

func amount(a *model.Amount) *float64 {
	if a == nil {
		return nil
	}
	f := float64(*a)
	return &f
}
