// Package val provides validation functions for request schemas.
package val

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate //nolint: gochecknoglobals // shared validator, built once in init

func init() { //nolint: gochecknoinits // custom validations must exist before first use
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(getTagName)

	for tag, fn := range customValidations() {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic("[val]: failed to register custom validation " + tag + ": " + err.Error())
		}
	}
}

// getTagName returns the name of a struct field based on its struct tags.
// It checks 'json', 'query', 'params' and 'form' tags in that order, and falls back
// to the field name if none of those tags have a non-empty name component.
func getTagName(fld reflect.StructField) string {
	for _, tagName := range []string{"json", "query", "params", "form"} {
		name := strings.SplitN(fld.Tag.Get(tagName), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}
