package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports problems under the form field names the templates
// use, not the Go struct field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks a form against its tags and returns a field→message map
// suitable for re-rendering the form inline.
func Validate(form any) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return map[string]string{"form": "invalid form payload"}
	}

	problems := make(map[string]string)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			problems[fieldName(fe)] = message(fe)
		}
	}
	return problems
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	return strings.ToLower(name[:1]) + name[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "eqfield":
		return "values do not match"
	case "numeric":
		return "must be a number"
	case "gt":
		return "please pick a value"
	default:
		return "invalid value"
	}
}
