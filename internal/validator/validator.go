// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"directpay/internal/models"
)

var routingNumberRegex = regexp.MustCompile(`^[0-9]{9}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("rail_type", validateRailType)
		_ = v.RegisterValidation("routing_number", validateRoutingNumber)
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.UserRole(fl.Field().String()).IsValid()
}

func validateRailType(fl validator.FieldLevel) bool {
	return models.PaymentRailType(fl.Field().String()).IsValid()
}

func validateRoutingNumber(fl validator.FieldLevel) bool {
	return routingNumberRegex.MatchString(fl.Field().String())
}
