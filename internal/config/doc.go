// Package config loads application settings from an optional config.yaml and
// TASKBOARD_-prefixed environment variables, applies defaults and validates
// the result.
package config
