// Package binding decodes and validates request payloads.
package binding

import (
	"fmt"
	"io"
	"net/http"

	validatorV10 "github.com/go-playground/validator/v10"

	"github.com/leeforge/gallery/json"
)

var validate = validatorV10.New()

// BindError is one decode or validation failure.
type BindError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e BindError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s' %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrors collects every failed constraint of one payload.
type ValidationErrors []BindError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Error())
}

// JSON decodes the request body into v and validates it.
func JSON(r *http.Request, v any) error {
	if r.Body == nil {
		return &BindError{Type: "bind_error", Message: "request body is empty"}
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &BindError{Type: "bind_error", Message: "failed to read request body: " + err.Error()}
	}
	if len(body) == 0 {
		return &BindError{Type: "bind_error", Message: "request body is empty"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &BindError{Type: "json_error", Message: "failed to unmarshal JSON: " + err.Error()}
	}
	return Struct(v)
}

// Struct validates v against its validate tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if fieldErrors, ok := err.(validatorV10.ValidationErrors); ok {
		var out ValidationErrors
		for _, fe := range fieldErrors {
			out = append(out, BindError{
				Type:    "validation_error",
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		return out
	}
	return &BindError{Type: "validation_error", Message: err.Error()}
}

func validationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "hexcolor":
		return "must be a hex color"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
