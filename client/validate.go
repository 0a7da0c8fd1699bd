package client

import (
	"errors"
	"reflect"
	"strings"

	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/constraints"

	"github.com/go-playground/validator/v10"
)

// Request types carry gin's `binding` tags so the server and the client
// enforce the same rules.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError is one rejected field in a VALIDATION_ERROR detail.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// validateRequest rejects req locally, before any network call.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fields []FieldError
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
	}
	return validationError("invalid request", fields, err)
}

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError(name+" is required", []FieldError{{Field: name, Rule: "required"}}, nil)
	}
	return nil
}

func validationError(msg string, fields []FieldError, cause error) *APIError {
	code := constraints.CodeValidation
	return &APIError{
		Message: msg,
		Payload: &v1.ErrorResponse{Message: &msg, ErrorCode: &code, Detail: fields},
		Err:     cause,
	}
}
