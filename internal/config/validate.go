package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rileyhilliard/hostkit/internal/errors"
)

// validate is the singleton validator instance.
var validate = validator.New()

// Validate validates the configuration using struct tags plus custom rules
// that cannot be expressed in tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// A remote user without a host is meaningless: the user is only used
	// to build the transport target.
	if cfg.Host == "" && cfg.User != "" {
		return errors.New(errors.ErrConfig,
			"'user' is set but 'host' is empty",
			"Set 'host' to the remote machine, or remove 'user' for local execution")
	}

	return nil
}

// formatValidationError converts validator errors into a structured error
// naming each offending field.
func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid configuration", "")
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}

	return errors.New(errors.ErrConfig,
		"Invalid configuration: "+strings.Join(fields, ", "),
		"Fix the listed fields in your .hostkit.yaml")
}
