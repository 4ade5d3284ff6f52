package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError is the client-facing form of a failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required": "Field is required",
	"email":    "Invalid email format",
	"min":      "Value is too short",
	"max":      "Value is too long",
	"len":      "Value has the wrong length",
	"numeric":  "Value must be numeric",
	"oneof":    "Value is not allowed",
	"future":   "Time must be in the future",
	"ampm":     "Slot label must end with AM or PM",
	"datetime": "Invalid date format, expected YYYY-MM-DD",
}

var (
	defaultOnce     sync.Once
	defaultValidate *validator.Validate
)

// Register adds the custom rules and json field naming to v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	if err := v.RegisterValidation("future", isFuture); err != nil {
		return err
	}
	return v.RegisterValidation("ampm", isAmPmLabel)
}

// Default returns a shared validator with the custom rules registered.
func Default() *validator.Validate {
	defaultOnce.Do(func() {
		defaultValidate = validator.New()
		if err := Register(defaultValidate); err != nil {
			panic(err)
		}
	})
	return defaultValidate
}

// Struct validates s with the `validate` tags.
func Struct(s interface{}) error {
	return Default().Struct(s)
}

// Describe converts validation errors into field errors; other errors yield nil.
func Describe(err error) []FieldError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		msg := messages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}

func isFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.After(time.Now())
}

func isAmPmLabel(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM")
}
