package model

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
)

type Visibility string

const (
	VisibilityVisible  Visibility = "visible"
	VisibilityHidden   Visibility = "hidden"
	VisibilityFeatured Visibility = "featured"
)

// ProductDraft is the in-progress product as the admin UI shapes it.
type ProductDraft struct {
	Slug       string   `json:"slug,omitempty"`
	Name       string   `json:"name" validate:"required,notblank"`
	SKU        string   `json:"sku" validate:"required,notblank"`
	Vendor     string   `json:"vendor" validate:"required,numeric"`
	Brand      string   `json:"brand" validate:"required,notblank"`
	Categories []string `json:"categories" validate:"min=1,dive,numeric"`
	Tags       []string `json:"tags"`

	ShortDescription string          `json:"shortDescription"`
	FullDescription  string          `json:"fullDescription"`
	Features         []string        `json:"features"`
	Specifications   []Specification `json:"specifications"`

	Price          float64  `json:"price" validate:"gte=0"`
	CompareAtPrice *float64 `json:"compareAtPrice,omitempty" validate:"omitempty,gte=0"`
	Discount       *float64 `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Taxable        bool     `json:"taxable"`
	TaxCode        string   `json:"taxCode"`

	Inventory Inventory `json:"inventory"`

	// Images are mutated only through the staging operations. The primary
	// image is tracked by index alone; entries carry no primary flag.
	Images            []ImageEntry `json:"images"`
	PrimaryImageIndex *int         `json:"primaryImageIndex,omitempty"`

	HasVariants    bool            `json:"hasVariants"`
	VariantOptions []VariantOption `json:"variantOptions"`
	Variants       []Variant       `json:"variants" validate:"dive"`

	Shipping Shipping `json:"shipping"`

	Status      Status     `json:"status" validate:"oneof=draft published scheduled"`
	Visibility  Visibility `json:"visibility" validate:"oneof=visible hidden featured"`
	PublishDate string     `json:"publishDate,omitempty" validate:"required_if=Status scheduled"`
}

type Specification struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Inventory struct {
	TrackInventory    bool `json:"trackInventory"`
	Quantity          int  `json:"quantity" validate:"gte=0"`
	AllowBackorders   bool `json:"allowBackorders"`
	LowStockThreshold int  `json:"lowStockThreshold" validate:"gte=0"`
}

type Shipping struct {
	Weight        *float64   `json:"weight,omitempty" validate:"omitempty,gte=0"`
	WeightUnit    string     `json:"weightUnit" validate:"oneof=kg g lb oz"`
	Dimensions    Dimensions `json:"dimensions"`
	ShippingClass string     `json:"shippingClass,omitempty"`
	FreeShipping  bool       `json:"freeShipping"`
	ShippingNote  string     `json:"shippingNote,omitempty"`
}

type Dimensions struct {
	Length *float64 `json:"length,omitempty" validate:"omitempty,gte=0"`
	Width  *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	Unit   string   `json:"unit" validate:"oneof=cm m in ft"`
}

type VariantOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
	Unit   string   `json:"unit,omitempty"`
}

type Variant struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	SKU            string         `json:"sku"`
	Price          float64        `json:"price" validate:"gte=0"`
	CompareAtPrice *float64       `json:"compareAtPrice,omitempty" validate:"omitempty,gte=0"`
	Quantity       int            `json:"quantity" validate:"gte=0"`
	Image          string         `json:"image,omitempty"`
	Unit           string         `json:"unit,omitempty"`
	Attributes     map[string]any `json:"attributes"`
}

// NewDraft returns an empty draft carrying the form defaults.
func NewDraft() ProductDraft {
	return ProductDraft{
		Categories:     []string{},
		Tags:           []string{},
		Features:       []string{},
		Specifications: []Specification{},
		Taxable:        true,
		Inventory: Inventory{
			TrackInventory:    true,
			LowStockThreshold: 5,
		},
		Images:         []ImageEntry{},
		VariantOptions: []VariantOption{},
		Variants:       []Variant{},
		Shipping: Shipping{
			WeightUnit: "kg",
			Dimensions: Dimensions{Unit: "cm"},
		},
		Status:     StatusPublished,
		Visibility: VisibilityVisible,
	}
}
