package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid values.
//
// Struct-level rules are enforced via `validate` tags; rules the tag syntax
// cannot express (database sub-config, timezone resolution) are checked here.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(errs)
		}
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if cfg.Worker.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Worker.Timezone); err != nil {
			return fmt.Errorf("worker: unknown timezone %q", cfg.Worker.Timezone)
		}
	}

	return nil
}

// formatValidationErrors converts validator errors into a readable message
// naming the offending field and rule.
func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "invalid configuration:"
	for _, e := range errs {
		msg += fmt.Sprintf("\n  %s: failed %q validation (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return fmt.Errorf("%s", msg)
}
