package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the tags the request
// schemas use. Field names in errors are the json names.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with "notblank" registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{v: v}
}

// Struct validates s against its validate tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single value against tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}
