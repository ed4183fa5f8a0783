// Package service implements the application logic between the HTTP
// handlers and the store: event recording, the nearby aggregations,
// Spotify login, surveys, and the recommendation flows.
package service

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/echomapapp/echomap-server/internal/errors"
)

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

// formatValidationError converts validator errors to domain errors.
// Absent required fields map to the missing-field code so write
// rejections are distinguishable from malformed values.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return apperrors.MissingField(field)
			case "min":
				return apperrors.Validationf("%s must be at least %s", field, e.Param())
			case "max":
				return apperrors.Validationf("%s must be at most %s", field, e.Param())
			default:
				return apperrors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
