// Package service provides the business logic layer for the course
// library: registering and scanning courses, resolving lesson media,
// and tracking viewing progress.
package service

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/lecternapp/lectern-server/internal/errors"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors to user-friendly domain errors.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// Return first validation error as a domain error
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return apperrors.Validationf("%s is required", field)
			case "gte":
				return apperrors.Validationf("%s must be at least %s", field, e.Param())
			case "min":
				return apperrors.Validationf("%s must be at least %s characters", field, e.Param())
			case "max":
				return apperrors.Validationf("%s exceeds maximum length of %s characters", field, e.Param())
			default:
				return apperrors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
