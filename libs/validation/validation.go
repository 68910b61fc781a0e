// Package validation wraps go-playground/validator and converts its errors
// into apperr validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/todoboard/backend/libs/apperr"
)

// Message returned with every validation failure
const Message = "invalid request data"

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validator validates request structs and single values
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their json tag and
// knows the "color" tag (#RRGGBB)
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		return hexColorRegex.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct validates s and returns an *apperr.Error of kind validation on failure
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		if _, exists := details[fe.Field()]; !exists {
			details[fe.Field()] = describe(fe)
		}
	}
	return apperr.Validation(Message, details)
}

// Fields starts a per-field check, used for partial updates where only
// the fields present in the request are validated
func (v *Validator) Fields() *Fields {
	return &Fields{validator: v, details: map[string]string{}}
}

// Fields accumulates field errors
type Fields struct {
	validator *Validator
	details   map[string]string
}

// Check validates value against tag and records the first failure under field
func (f *Fields) Check(field string, value any, tag string) *Fields {
	if _, exists := f.details[field]; exists {
		return f
	}
	err := f.validator.validate.Var(value, tag)
	if err == nil {
		return f
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		f.details[field] = describe(validationErrors[0])
	} else {
		f.details[field] = "is invalid"
	}
	return f
}

// Add records a failure found outside of the validator, such as a
// reference to a missing row
func (f *Fields) Add(field, message string) *Fields {
	if _, exists := f.details[field]; !exists {
		f.details[field] = message
	}
	return f
}

// Err returns the accumulated validation error or nil
func (f *Fields) Err() error {
	if len(f.details) == 0 {
		return nil
	}
	return apperr.Validation(Message, f.details)
}

func describe(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if isString && fe.Param() == "1" {
			return "must not be empty"
		}
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "color":
		return "must be a hex color (#RRGGBB)"
	default:
		return "is invalid"
	}
}
