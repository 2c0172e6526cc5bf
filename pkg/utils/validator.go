package utils

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "fieldops/pkg/errors"
)

type Validator struct {
	validator *validator.Validate
}

func NewValidator(v *validator.Validate) *Validator {
	return &Validator{validator: v}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "fill all required fields correctly", err)
	}
	return nil
}
