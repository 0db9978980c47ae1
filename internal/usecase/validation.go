package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xavierca1/ligue-crm/internal/entity"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("stage", func(fl validator.FieldLevel) bool {
		_, ok := entity.ParseStage(fl.Field().String())
		return ok
	})
	return v
}

// ValidateLeadInput checks the lead form. All problems are reported, not just the first.
func ValidateLeadInput(input LeadInput) []ValidationError {
	input = input.trimmed()

	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{"input", err.Error()}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is invalid"
	case "gte":
		return "must not be negative"
	case "lte":
		return "must not exceed 999,999,999,999.99"
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	case "stage":
		return "must be one of: " + strings.Join(entity.StageLabels(), ", ")
	default:
		return "is invalid"
	}
}

func validationFailed(errs []ValidationError) error {
	return &InputError{Errors: errs}
}
