package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requiredSecrets lists the sensitive settings each environment must provide.
var requiredSecrets = map[Environment][]string{
	Development: {},
	Test:        {},
	CI:          {"DBPassword", "JWTSecret"},
	Production:  {"DBPassword", "JWTSecret"},
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []string

	for _, field := range requiredSecrets[cfg.Environment] {
		if secretValue(cfg, field) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "is required in " + string(cfg.Environment)}.Error())
		}
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" || cfg.DBName == "" {
			errs = append(errs, ValidationError{Field: "DBHost", Message: "host and database name are required for postgres"}.Error())
		}
	case "sqlite":
		if cfg.Environment == Production {
			errs = append(errs, ValidationError{Field: "DBDriver", Message: "sqlite is not allowed in production"}.Error())
		}
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{Field: "SQLitePath", Message: "is required for sqlite"}.Error())
		}
	default:
		errs = append(errs, ValidationError{Field: "DBDriver", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)}.Error())
	}

	if cfg.PageSize < 1 {
		errs = append(errs, ValidationError{Field: "PageSize", Message: "must be positive"}.Error())
	}
	if cfg.MaxPageSize < cfg.PageSize {
		errs = append(errs, ValidationError{Field: "MaxPageSize", Message: "must not be smaller than PageSize"}.Error())
	}
	if cfg.MinIngredientAmount < 1 {
		errs = append(errs, ValidationError{Field: "MinIngredientAmount", Message: "must be at least 1"}.Error())
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{Field: "TokenTTL", Message: "must be positive"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

func secretValue(cfg *Config, field string) string {
	switch field {
	case "DBPassword":
		if cfg.DBDriver == "sqlite" {
			return "unused"
		}
		return cfg.DBPassword
	case "JWTSecret":
		return cfg.JWTSecret
	}
	return ""
}
