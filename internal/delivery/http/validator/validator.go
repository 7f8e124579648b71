// Package validator adapts go-playground/validator to echo.
package validator

import (
	"reflect"
	"strings"

	domainerrors "etuition/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Validator implements echo.Validator
type Validator struct {
	validate *validator.Validate
}

// New creates the validator; field names in messages come from the form tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	return &Validator{validate: v}
}

// Validate validates a bound request struct. Failures are returned as
// ErrValidationFailed carrying the offending fields.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errors.WithStack(err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields = append(fields, fieldErr.Field()+" ("+fieldErr.Tag()+")")
	}

	return domainerrors.ErrValidationFailed.WithDetails("invalid fields: " + strings.Join(fields, ", "))
}
