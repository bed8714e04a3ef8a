// Package validation checks request payloads before they reach the services.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/dto"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a validation: either OK or a list of field errors.
type Result struct {
	Errors []FieldError
}

func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Message joins every field message with ", ".
func (r Result) Message() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func Register(req *dto.RegisterRequest) Result           { return check(req) }
func Login(req *dto.LoginRequest) Result                 { return check(req) }
func ResetPassword(req *dto.ResetPasswordRequest) Result { return check(req) }

func ResetPasswordRequest(req *dto.ResetPasswordRequestRequest) Result {
	return check(req)
}

// check runs the struct's validate tags. A field's message tag replaces
// the generic text, and each field is reported once.
func check(s interface{}) Result {
	err := validate.Struct(s)
	if err == nil {
		return Result{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var res Result
	seen := make(map[string]bool)
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Message: messageFor(t, fe),
		})
	}
	return res
}

func messageFor(t reflect.Type, fe validator.FieldError) string {
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if msg := f.Tag.Get("message"); msg != "" {
			return msg
		}
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
