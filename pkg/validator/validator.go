package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) ([]ValidationError, bool) {
	err := v.validate.Struct(i)
	if err == nil {
		return nil, true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ValidationError{{Code: "INVALID", Message: err.Error()}}, false
	}

	result := make([]ValidationError, 0, len(validationErrors))
	for _, err := range validationErrors {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters long", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must not exceed %s characters", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "url", "uri":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		default:
			message = fmt.Sprintf("%s is invalid", err.Field())
		}

		result = append(result, ValidationError{
			Field:   err.Field(),
			Code:    strings.ToUpper(err.Tag()),
			Message: message,
		})
	}

	return result, false
}
