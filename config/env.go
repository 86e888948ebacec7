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

// GetEnvironment determines the current environment
func GetEnvironment() Environment {
	// CI environment is automatically detected
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := Environment(os.Getenv("ENV")); env {
	case Production, Test, Development:
		return env
	default:
		return Development
	}
}

// IsProduction returns true for production deployments
func (e Environment) IsProduction() bool {
	return e == Production
}

// IsDevelopment returns true for local development
func (e Environment) IsDevelopment() bool {
	return e == Development
}
