// internal/utils/validator.go
package utils

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("notblank", validateNotBlank)
	validate.RegisterValidation("image_url", validateImageURL)
	validate.RegisterValidation("money", validateMoney)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// jsonFieldName reports fields by their JSON names so errors match the payload.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	return strings.TrimSpace(field.String()) != ""
}

// validateImageURL accepts absolute http(s) URLs and root-relative paths.
func validateImageURL(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}

	raw := strings.TrimSpace(field.String())
	if raw == "" {
		return true
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateMoney accepts amounts with at most two decimal places, matching
// the decimal(10,2) columns.
func validateMoney(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}

	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		cents := field.Float() * 100
		return math.Abs(cents-math.Round(cents)) < 1e-3
	default:
		return true
	}
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldPath(e),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// fieldPath drops the struct name from the namespace, e.g. "items[0].quantity".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return e.Field() + " is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return e.Field() + " must contain at least " + e.Param() + " item(s)"
		}
		return e.Field() + " must be at least " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "max", "lte":
		return e.Field() + " must be at most " + e.Param()
	case "money":
		return e.Field() + " must have at most two decimal places"
	case "image_url":
		return e.Field() + " must be an http(s) URL or an absolute path"
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}
