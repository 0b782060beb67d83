package utils

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks request payloads. The notnumeric rule rejects values that
// are nothing but a number, e.g. a caption of "12345".
var Validate = validator.New()

func init() {
	Validate.RegisterValidation("notnumeric", notNumeric)
}

func notNumeric(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	_, err := strconv.ParseFloat(value, 64)
	return err != nil
}
