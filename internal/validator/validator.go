// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// currencyCodeRegex matches short uppercase currency tickers such as
// USD, EUR or BTC. Whether a code is actually tradable is decided by the
// exchange-rate table at the service layer.
var currencyCodeRegex = regexp.MustCompile(`^[A-Z0-9]{2,8}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency_code", validateCurrencyCode)
		_ = v.RegisterValidation("decimal_amount", validateDecimalAmount)
		_ = v.RegisterValidation("positive_decimal", validatePositiveDecimal)
	}
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodeRegex.MatchString(fl.Field().String())
}

// validateDecimalAmount accepts any string that parses as a decimal number.
func validateDecimalAmount(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

// validatePositiveDecimal accepts strings that parse as a decimal > 0.
func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}
