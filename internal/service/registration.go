package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/go-playground/validator/v10"
)

// RegistrationValidator checks registration requests and maps accepted
// ones onto new users
type RegistrationValidator struct {
	validate *validator.Validate
}

// NewRegistrationValidator creates a validator with the password complexity
// rule registered
func NewRegistrationValidator() *RegistrationValidator {
	return &RegistrationValidator{validate: NewValidate()}
}

// NewValidate returns a validator that reports JSON field names and knows
// the "complexity" and "bcryptmax" tags
func NewValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// RegisterValidation only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("complexity", func(fl validator.FieldLevel) bool {
		return security.MeetsPasswordComplexity(fl.Field().String())
	})
	// max counts runes; bcrypt limits bytes
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return security.FitsBcrypt(fl.Field().String())
	})
	return v
}

// ValidateAndMap validates a registration request and returns the user it
// describes. The password is not part of the result.
func (v *RegistrationValidator) ValidateAndMap(req domain.RegisterRequest) (*domain.User, error) {
	if err := validateStruct(v.validate, req); err != nil {
		return nil, err
	}
	return MapRegistration(req), nil
}

// MapRegistration copies the identity fields of a registration request onto
// a new user
func MapRegistration(req domain.RegisterRequest) *domain.User {
	return &domain.User{
		UserName:  req.UserName,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
}

func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fieldMessage(e)
	}
	return &domain.ValidationError{Fields: fields}
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "email":
		return "invalid email format"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "eqfield":
		return "must match password"
	case "bcryptmax":
		return security.PasswordTooLongMessage
	case "complexity":
		return security.PasswordComplexityMessage
	default:
		return "validation failed on " + e.Tag()
	}
}
