package services

import (
	"social-lab/errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateEntity checks the validate tags of a domain entity and reports
// failures as InvalidArgument.
func validateEntity(name string, entity any) error {
	if err := validate.Struct(entity); err != nil {
		return errors.InvalidArgument("invalid %s: %v", name, err)
	}
	return nil
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
