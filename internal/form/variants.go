package form

import (
	"fmt"
	"strings"

	"go-product-admin/internal/model"
	"go-product-admin/pkg/apperr"
)

const variantOptionsMsg = "Please ensure all variant options have names and values."

// DefaultMaxVariants caps one generation when no limit is configured.
const DefaultMaxVariants = 1000

// CheckOptions reports every option that cannot take part in generation.
// Keys are json paths into the draft.
func CheckOptions(options []model.VariantOption) map[string]string {
	fields := map[string]string{}
	if len(options) == 0 {
		fields["variantOptions"] = "Add at least one variant option"
		return fields
	}
	for i, opt := range options {
		base := fmt.Sprintf("variantOptions[%d]", i)
		if strings.TrimSpace(opt.Name) == "" {
			fields[base+".name"] = fmt.Sprintf("Option %d needs a name", i+1)
		}
		if len(opt.Values) == 0 {
			fields[base+".values"] = fmt.Sprintf("Option %d needs at least one value", i+1)
			continue
		}
		for j, v := range opt.Values {
			if strings.TrimSpace(v) == "" {
				fields[fmt.Sprintf("%s.values[%d]", base, j)] = fmt.Sprintf("Option %d has a blank value", i+1)
			}
		}
	}
	return fields
}

// CountCombinations returns how many variants options expand to. Counting
// stops as soon as the total passes limit, so the result is at most limit+1.
func CountCombinations(options []model.VariantOption, limit int) int {
	if len(options) == 0 {
		return 0
	}
	n := 1
	for _, opt := range options {
		n *= len(opt.Values)
		if n == 0 {
			return 0
		}
		if n > limit {
			return limit + 1
		}
	}
	return n
}

// Combinations expands the option value lists into their cartesian product.
// The first option varies slowest.
func Combinations(options []model.VariantOption) [][]string {
	combos := [][]string{{}}
	for _, opt := range options {
		next := make([][]string, 0, len(combos)*len(opt.Values))
		for _, prefix := range combos {
			for _, v := range opt.Values {
				combo := make([]string, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, v))
			}
		}
		combos = next
	}
	return combos
}

// GenerateVariants builds one variant per combination. It fails without
// producing anything if any option is unusable or the options expand to more
// than limit variants. A limit <= 0 means DefaultMaxVariants.
func GenerateVariants(options []model.VariantOption, baseSKU string, basePrice float64, compareAt *float64, limit int) ([]model.Variant, error) {
	if fields := CheckOptions(options); len(fields) > 0 {
		return nil, apperr.InvalidErr(variantOptionsMsg, fields)
	}
	if limit <= 0 {
		limit = DefaultMaxVariants
	}
	if CountCombinations(options, limit) > limit {
		msg := fmt.Sprintf("These options make more than %d variants. Remove some values and try again.", limit)
		return nil, apperr.InvalidErr(msg, map[string]string{"variantOptions": msg})
	}

	unit := firstUnit(options)
	combos := Combinations(options)
	variants := make([]model.Variant, 0, len(combos))
	for i, combo := range combos {
		v := model.Variant{
			ID:         fmt.Sprintf("variant-%d", i+1),
			Name:       strings.Join(combo, " / "),
			SKU:        VariantSKU(baseSKU, combo),
			Price:      basePrice,
			Quantity:   0,
			Unit:       unit,
			Attributes: map[string]any{},
		}
		if compareAt != nil {
			c := *compareAt
			v.CompareAtPrice = &c
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// VariantSKU is the base SKU, a dash, then the first two characters of each
// value upper-cased: ("ABC", [M Blue]) -> "ABC-MBL".
func VariantSKU(base string, combo []string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('-')
	for _, v := range combo {
		r := []rune(v)
		if len(r) > 2 {
			r = r[:2]
		}
		b.WriteString(strings.ToUpper(string(r)))
	}
	return b.String()
}

func firstUnit(options []model.VariantOption) string {
	for _, opt := range options {
		if u := strings.TrimSpace(opt.Unit); u != "" {
			return u
		}
	}
	return ""
}

// GenerateVariants replaces the draft's variants with a fresh expansion of
// its options. With preserve set, variants whose name survives keep their
// manual edits (sku, prices, quantity, image, attributes).
func (f *Form) GenerateVariants(preserve bool, limit int) (int, error) {
	d := &f.s.Draft
	variants, err := GenerateVariants(d.VariantOptions, d.SKU, d.Price, d.CompareAtPrice, limit)
	if err != nil {
		return 0, err
	}
	if preserve {
		prior := make(map[string]model.Variant, len(d.Variants))
		for _, v := range d.Variants {
			prior[v.Name] = v
		}
		for i := range variants {
			old, ok := prior[variants[i].Name]
			if !ok {
				continue
			}
			variants[i].SKU = old.SKU
			variants[i].Price = old.Price
			variants[i].CompareAtPrice = old.CompareAtPrice
			variants[i].Quantity = old.Quantity
			variants[i].Image = old.Image
			if old.Attributes != nil {
				variants[i].Attributes = old.Attributes
			}
		}
	}
	d.Variants = variants
	f.touch("variants")
	f.s.UpdatedAt = f.now()
	return len(variants), nil
}

// UpdateVariant merges a partial variant document into variant i. The id is
// kept as generated.
func (f *Form) UpdateVariant(i int, patch []byte) error {
	d := &f.s.Draft
	if i < 0 || i >= len(d.Variants) {
		return apperr.NotFoundErr(fmt.Sprintf("Variant %d does not exist", i))
	}
	var v model.Variant
	if err := mergeInto(&v, d.Variants[i], patch); err != nil {
		return err
	}
	v.ID = d.Variants[i].ID
	if v.Attributes == nil {
		v.Attributes = map[string]any{}
	}
	d.Variants[i] = v
	f.touch(fmt.Sprintf("variants[%d]", i))
	f.s.UpdatedAt = f.now()
	return nil
}
