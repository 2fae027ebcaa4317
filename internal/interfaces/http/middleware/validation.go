package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/settlement"
)

// SetupValidator configures the request validator with custom tags.
// Must be called once during startup, before the engine serves requests.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON/form tag names for field names in validation errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("commission_type", validateCommissionType)
	_ = v.RegisterValidation("payment_method", validatePaymentMethod)
}

// validateCommissionType accepts valid commission type values
func validateCommissionType(fl validator.FieldLevel) bool {
	return commission.Type(fl.Field().String()).IsValid()
}

// validatePaymentMethod accepts valid payment method values
func validatePaymentMethod(fl validator.FieldLevel) bool {
	return settlement.PaymentMethod(fl.Field().String()).IsValid()
}
