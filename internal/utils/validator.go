// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/licensechain/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	validate.RegisterValidation("reg_number", validateRegistrationNumber)
	validate.RegisterValidation("wallet_address", validateWalletAddress)
	validate.RegisterValidation("business_type", validateBusinessType)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateRegistrationNumber(fl validator.FieldLevel) bool {
	return models.ValidRegistrationNumber(fl.Field().String())
}

func validateWalletAddress(fl validator.FieldLevel) bool {
	return IsAddress(fl.Field().String())
}

func validateBusinessType(fl validator.FieldLevel) bool {
	_, ok := models.BusinessCatalogue[fl.Field().String()]
	return ok
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "reg_number":
		return "Registration number must look like REG-123456"
	case "wallet_address":
		return e.Field() + " must be a 0x-prefixed 20-byte address"
	case "business_type":
		return "Unknown business type"
	default:
		return e.Field() + " is invalid"
	}
}
