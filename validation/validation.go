// Package validation validates user input before it is dispatched to the
// backend, so form mistakes surface inline per field instead of as
// server round-trips.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors maps a field name to a user-facing message.
type FieldErrors map[string]string

// Error implements the error interface.
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", f, e[f]))
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Struct validates s against its `validate` tags. On failure it returns
// FieldErrors with one message per offending field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := make(FieldErrors, len(verrs))
	for _, f := range verrs {
		fe[f.Field()] = message(f)
	}
	return fe
}

// Email validates a single email address.
func Email(v string) error {
	if err := validate.Var(v, "required,email"); err != nil {
		return FieldErrors{"Email": "must be a valid email address"}
	}
	return nil
}

// Required validates that a single named value is non-empty.
func Required(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return FieldErrors{name: "is required"}
	}
	return nil
}

func message(f validator.FieldError) string {
	switch f.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", f.Param())
	case "alphanum":
		return "may only contain letters and digits"
	case "eqfield":
		return "does not match"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", f.Param())
	}
	return "is invalid"
}
