package validator

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string // Go namespace, e.g. ProductDraft.Inventory.Quantity
	Field       string // json path, e.g. inventory.quantity
	Tag         string
	Value       string
	Message     string
}

var validate = validator.New()

// messages overrides the generic text for a json path + tag pair.
var messages = map[string]string{
	"categories.min": "At least one category is required",
	"vendor.numeric": "Vendor must be a numeric id",
}

var labels = map[string]string{
	"sku": "SKU",
}

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{Field: "_", Tag: "invalid", Message: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Field = jsonPath(err.Namespace())
			element.Tag = err.Tag()
			element.Value = err.Param()
			element.Message = message(element.Field, err)
			errors = append(errors, &element)
		}
	}
	return errors
}

// FieldMessages flattens validation errors into path -> message, keeping the
// first message reported for each path.
func FieldMessages(errs []*ErrorResponse) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

func jsonPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(path string, fe validator.FieldError) string {
	if m, ok := messages[basePath(path)+"."+fe.Tag()]; ok {
		return m
	}
	label := Label(path)
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "notblank":
		return label + " must not be blank"
	case "min":
		switch fe.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("%s must contain at least %s item(s)", label, fe.Param())
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "numeric":
		return label + " must be numeric"
	default:
		return label + " is invalid"
	}
}

// basePath strips slice indexes so "categories[2]" matches "categories".
func basePath(path string) string {
	var b strings.Builder
	skip := false
	for _, r := range path {
		switch {
		case r == '[':
			skip = true
		case r == ']':
			skip = false
		case !skip:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Label renders the last segment of a json path for humans:
// "shipping.dimensions.unit" -> "Unit", "compareAtPrice" -> "Compare at price".
func Label(path string) string {
	seg := basePath(path)
	if i := strings.LastIndex(seg, "."); i >= 0 {
		seg = seg[i+1:]
	}
	if l, ok := labels[seg]; ok {
		return l
	}
	var b strings.Builder
	for i, r := range seg {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
