// Package validate runs struct-tag checks on use case inputs and reports the
// failures as entity.ValidationErrors keyed by the input's JSON field names.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"contest-api/internal/domain/entity"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns entity.ValidationErrors on failure.
// Whitespace-only strings do not satisfy "required"; callers trim first.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var out entity.ValidationErrors
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
