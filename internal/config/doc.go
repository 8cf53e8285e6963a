// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation; secrets (cookies, database passwords) belong in the
// environment or a .env file, never in the YAML itself. Sanitized() produces
// the manifest-safe projection with secrets redacted.
package config
