package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// RefID accepts both numeric and string ids from the backend.
type RefID string

func (id *RefID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RefID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = RefID(n.String())
	return nil
}

func (id RefID) String() string { return string(id) }

// Amount accepts JSON numbers and decimal strings ("299.99").
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// ProductPayload is the request body the backend expects for create/update.
type ProductPayload struct {
	Name             string           `json:"name"`
	Slug             string           `json:"slug,omitempty"`
	SKU              string           `json:"sku"`
	Vendor           int64            `json:"vendor"`
	Brand            string           `json:"brand"`
	Categories       []int64          `json:"categories"`
	Tags             []string         `json:"tags"`
	ShortDescription string           `json:"short_description"`
	FullDescription  string           `json:"full_description"`
	Features         []string         `json:"features"`
	Specifications   []Specification  `json:"specifications"`
	Price            float64          `json:"price"`
	CompareAtPrice   *float64         `json:"compare_at_price"`
	Discount         *float64         `json:"discount"`
	Taxable          bool             `json:"taxable"`
	TaxCode          string           `json:"tax_code"`
	HasVariants      bool             `json:"has_variants"`
	VariantOptions   []VariantOption  `json:"variant_options"`
	Variants         []VariantPayload `json:"variants"`
	Inventory        InventoryPayload `json:"inventory"`
	Weight           *float64         `json:"weight,omitempty"`
	WeightUnit       string           `json:"weight_unit"`
	Length           *float64         `json:"length,omitempty"`
	Width            *float64         `json:"width,omitempty"`
	Height           *float64         `json:"height,omitempty"`
	DimensionsUnit   string           `json:"dimensions_unit"`
	ShippingClass    string           `json:"shipping_class"`
	FreeShipping     bool             `json:"free_shipping"`
	ShippingNote     string           `json:"shipping_note"`
	Status           string           `json:"status"`
	Visibility       string           `json:"visibility"`
	PublishDate      string           `json:"publish_date,omitempty"`

	PrimaryImageIndex *int                   `json:"primaryImageIndex,omitempty"`
	Images            []ImagePayload         `json:"images"`
	ExistingImages    []ExistingImagePayload `json:"existingImages"`
}

type InventoryPayload struct {
	Quantity          int  `json:"quantity"`
	TrackInventory    bool `json:"trackInventory"`
	AllowBackorders   bool `json:"allowBackorders"`
	LowStockThreshold int  `json:"lowStockThreshold"`
}

type VariantPayload struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	SKU            string         `json:"sku"`
	Price          float64        `json:"price"`
	CompareAtPrice *float64       `json:"compare_at_price"`
	Quantity       int            `json:"quantity"`
	Image          string         `json:"image,omitempty"`
	Unit           string         `json:"unit"`
	Attributes     map[string]any `json:"attributes"`
}

type ImagePayload struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"isPrimary"`
	ID        string `json:"id,omitempty"`
}

type ExistingImagePayload struct {
	ID        string `json:"id"`
	Alt       string `json:"alt"`
	Order     int    `json:"order"`
	IsPrimary bool   `json:"is_primary"`
}

// Product is a product as the backend returns it.
type Product struct {
	ID               RefID            `json:"id"`
	Slug             string           `json:"slug"`
	Name             string           `json:"name"`
	SKU              string           `json:"sku"`
	Vendor           RefID            `json:"vendor"`
	VendorName       string           `json:"vendor_name,omitempty"`
	Brand            string           `json:"brand"`
	Categories       []RefID          `json:"categories"`
	Tags             []string         `json:"tags"`
	ShortDescription string           `json:"short_description"`
	FullDescription  string           `json:"full_description"`
	Features         []string         `json:"features"`
	Specifications   []Specification  `json:"specifications"`
	Price            Amount           `json:"price"`
	CompareAtPrice   *Amount          `json:"compare_at_price"`
	Discount         *Amount          `json:"discount"`
	Taxable          bool             `json:"taxable"`
	TaxCode          string           `json:"tax_code"`
	HasVariants      bool             `json:"has_variants"`
	VariantOptions   []VariantOption  `json:"variant_options"`
	Variants         []ProductVariant `json:"variants"`
	Inventory        InventoryPayload `json:"inventory"`
	Weight           *Amount          `json:"weight"`
	WeightUnit       string           `json:"weight_unit"`
	Length           *Amount          `json:"length"`
	Width            *Amount          `json:"width"`
	Height           *Amount          `json:"height"`
	DimensionsUnit   string           `json:"dimensions_unit"`
	ShippingClass    string           `json:"shipping_class"`
	FreeShipping     bool             `json:"free_shipping"`
	ShippingNote     string           `json:"shipping_note"`
	Status           string           `json:"status"`
	Visibility       string           `json:"visibility"`
	PublishDate      string           `json:"publish_date"`

	PrimaryImageIndex *int           `json:"primaryImageIndex"`
	Images            []ProductImage `json:"images"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ProductVariant struct {
	ID             RefID          `json:"id"`
	Name           string         `json:"name"`
	SKU            string         `json:"sku"`
	Price          Amount         `json:"price"`
	CompareAtPrice *Amount        `json:"compare_at_price"`
	Quantity       int            `json:"quantity"`
	Image          string         `json:"image"`
	Unit           string         `json:"unit"`
	Attributes     map[string]any `json:"attributes"`
}

type ProductImage struct {
	ID        RefID  `json:"id"`
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	Order     int    `json:"order"`
	IsPrimary bool   `json:"is_primary"`
	// Some endpoints echo the request shape back.
	IsPrimaryCamel bool `json:"isPrimary"`
}

func (i ProductImage) Primary() bool { return i.IsPrimary || i.IsPrimaryCamel }

type StockUpdate struct {
	Quantity          int   `json:"quantity" validate:"gte=0"`
	TrackInventory    *bool `json:"trackInventory,omitempty"`
	AllowBackorders   *bool `json:"allowBackorders,omitempty"`
	LowStockThreshold *int  `json:"lowStockThreshold,omitempty" validate:"omitempty,gte=0"`
}
