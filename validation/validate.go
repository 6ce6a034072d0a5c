package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks a request struct's `validate` tags and returns one
// entry per failing field, or nil when the struct is valid.
func Validate(data interface{}) []ValidationError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var errors []ValidationError
	for _, err := range err.(validator.ValidationErrors) {
		errors = append(errors, ValidationError{
			Field:   err.Field(),
			Message: fmt.Sprintf("field must satisfy %s constraint", err.Tag()),
		})
	}
	return errors
}
