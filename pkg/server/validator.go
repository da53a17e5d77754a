package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type requestValidator struct {
	v *validator.Validate
}

func newValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Details []FieldError `json:"details"`
}

// unprocessable writes a 422 with one entry per failing field.
func unprocessable(c echo.Context, details ...FieldError) error {
	return c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Success: false,
		Error:   "validation failed",
		Details: details,
	})
}

func validationDetails(err error) []FieldError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// typeMismatch reports a JSON value of the wrong type as a field error.
// Errors that are not type mismatches return false.
func typeMismatch(err error, fallback string) (FieldError, bool) {
	var ute *json.UnmarshalTypeError
	if !errors.As(err, &ute) {
		return FieldError{}, false
	}
	field := ute.Field
	if field == "" {
		field = fallback
	}
	return FieldError{Field: field, Message: fmt.Sprintf("must be a %s", ute.Type)}, true
}

// bodyTooLarge returns echo's 413 when the body limit tripped mid-read.
func bodyTooLarge(err error) (*echo.HTTPError, bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return he, true
	}
	return nil, false
}
