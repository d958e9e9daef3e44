// Package validation builds the request validator with the registry's custom
// rules registered.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	locationNamePattern = regexp.MustCompile("^[a-zA-Z0-9 \\-`_]+$")
	alphaSpacePattern   = regexp.MustCompile(`^[a-zA-Z ]+$`)
)

// New returns a validator with the custom tags registered:
//
//	location_name  letters, digits, spaces, hyphens, backticks, underscores
//	alpha_space    letters and spaces only
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("location_name", func(fl validator.FieldLevel) bool {
		return locationNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("alpha_space", func(fl validator.FieldLevel) bool {
		return alphaSpacePattern.MatchString(fl.Field().String())
	})
	return v
}
