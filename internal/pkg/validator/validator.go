package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	registerCustomValidations()
}

func registerCustomValidations() {
	// Payout queue status
	validate.RegisterValidation("payout_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		validStatuses := []string{"PENDING", "RELEASED", "FROZEN", "CANCELLED"}
		for _, s := range validStatuses {
			if status == s {
				return true
			}
		}
		return false
	})

	// Dynamic CPM mode
	validate.RegisterValidation("cpm_mode", func(fl validator.FieldLevel) bool {
		mode := fl.Field().String()
		validModes := []string{"conservative", "aggressive", ""}
		for _, m := range validModes {
			if mode == m {
				return true
			}
		}
		return false
	})

	// Creator risk level
	validate.RegisterValidation("risk_level", func(fl validator.FieldLevel) bool {
		level := fl.Field().String()
		validLevels := []string{"low", "medium", "high", ""}
		for _, l := range validLevels {
			if level == l {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "uuid":
			errors[field] = "Invalid identifier format"
		case "payout_status":
			errors[field] = "Invalid status. Must be: PENDING, RELEASED, FROZEN, or CANCELLED"
		case "cpm_mode":
			errors[field] = "Invalid mode. Must be: conservative or aggressive"
		case "risk_level":
			errors[field] = "Invalid risk level. Must be: low, medium, or high"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
