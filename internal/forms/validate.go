package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"diversityorgs/internal/models"
	"diversityorgs/internal/validation"
)

// Errors maps form field names to a message.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report errors by form field name rather than struct field name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		_, err := validation.ParseWebURL(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("orgtype", func(fl validator.FieldLevel) bool {
		return models.OrgType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("emaillist", func(fl validator.FieldLevel) bool {
		for _, e := range ParseNames(fl.Field().String()) {
			if v.Var(e, "email") != nil {
				return false
			}
		}
		return true
	})
	return v
}

// Validate checks a form struct. It returns nil or an Errors value.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "httpurl":
		if _, err := validation.ParseWebURL(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
		return "Invalid value"
	case "orgtype":
		return "Unknown organization type"
	case "emaillist":
		return "Enter a comma separated list of email addresses"
	default:
		return "Invalid value"
	}
}
