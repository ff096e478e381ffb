// Package validation runs struct-tag validation and reports failures as
// field-level errors.
package validation

import (
	stdErrors "errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/campusmarket-client/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Struct validates v and returns the field errors, sorted by field name.
func Struct(v any) []pkgerrors.FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !stdErrors.As(err, &errs) {
		return []pkgerrors.FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]pkgerrors.FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, pkgerrors.FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Check validates v and wraps any failure in an error with the given code.
func Check(code pkgerrors.Code, summary string, v any) error {
	fields := Struct(v)
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(code, summary).WithDetails(fields)
}

// Summary joins field errors into one human readable line.
func Summary(fields []pkgerrors.FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return strings.Join(parts, "; ")
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
