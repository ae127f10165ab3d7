// Package config provides centralized configuration management for the dashboard
// aggregator. It handles loading configuration from multiple sources, validation, and
// provides a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables prefixed with AGIL_ (highest priority)
//	2. Unprefixed variables kept from the previous deployment
//	   (USER_SERVICE_URL, PROBLEM_SERVICE_URL, SENDGRID_API_KEY, SENDGRID_FROM_EMAIL)
//	3. A YAML file: $AGIL_CONFIG_FILE, config.yaml or configs/config.yaml
//	4. Default values (lowest priority)
//
// A .env file in the working directory is loaded into the process environment first;
// variables already set are never overwritten by it.
//
// # Environment Variables
//
// Nested sections map onto underscore separated names:
//
//	AGIL_SERVER_PORT=8001
//	AGIL_UPSTREAM_USER_SERVICE_URL=http://users:3000
//	AGIL_UPSTREAM_PROBLEMS_TIMEOUT=10s
//	AGIL_MAIL_SENDGRID_API_KEY=SG.xxxxx
//	AGIL_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return fmt.Errorf("failed to load configuration: %w", err)
//	}
//
// For tests, Default returns a fully populated configuration that needs no environment.
package config
