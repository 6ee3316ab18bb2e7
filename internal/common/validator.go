package common

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs validator/v10 into echo's c.Validate
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// ValidationDetails flattens validator errors into field -> rule messages
func ValidationDetails(err error) map[string]string {
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["request"] = err.Error()
		return details
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			details[field] = fe.Tag() + "=" + fe.Param()
		} else {
			details[field] = fe.Tag()
		}
	}
	return details
}
