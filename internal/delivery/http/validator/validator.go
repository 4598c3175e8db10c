// Package validator adapts go-playground/validator to echo's Validator
// interface so handlers can rely on struct tags for input validation.
package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	domainerrors "gatehouse/internal/domain/errors"
)

type echoValidator struct {
	validate *validator.Validate
}

// New is the constructor for the echo request validator.
func New() echo.Validator {
	return &echoValidator{validate: validator.New()}
}

// Validate runs the struct-tag rules and maps failures onto the shared
// validation error so the error middleware renders them uniformly.
func (v *echoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
