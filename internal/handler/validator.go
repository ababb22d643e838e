package handler

import (
	"github.com/locvowork/school_management/internal/domain"
)

// RequestValidator plugs the teacher rules into echo's Context.Validate.
type RequestValidator struct{}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{}
}

// Validate reports field errors as a *domain.ValidationError.
func (v *RequestValidator) Validate(i interface{}) error {
	if t, ok := i.(*domain.Teacher); ok {
		return t.Validate()
	}
	return domain.Validator().Struct(i)
}
