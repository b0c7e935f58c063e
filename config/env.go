package config

import (
	"os"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment. CI is detected from the
// runner's CI=true, everything else comes from ENVIRONMENT (or the older ENV).
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("ENV")
	}
	switch Environment(env) {
	case Production:
		return Production
	case Test:
		return Test
	default:
		return Development
	}
}

func IsProduction() bool {
	return GetEnvironment() == Production
}
