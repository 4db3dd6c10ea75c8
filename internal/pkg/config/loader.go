// Package config provides environment variable loaders with validated
// fallbacks. A bad value never stops the process: the default is applied and
// a warning is returned for the caller to log.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigLoadResult is the outcome of loading one variable.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable's value, or defaultValue when unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and checks it with validator.
// An invalid value falls back to defaultValue with a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(raw string) (string, error) { return raw, nil }, validator)
}

// LoadEnvDuration loads a time.Duration such as "300s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer. Surrounding spaces are not accepted.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvFloat loads a float64.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(raw string) (float64, error) {
		return strconv.ParseFloat(raw, 64)
	}, validator)
}

// LoadEnvBool loads a boolean. Accepted spellings are true/false, 1/0,
// yes/no and on/off, case-insensitive.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, parseBool, nil)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean")
}

func loadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	value, err := parse(raw)
	if err != nil {
		return fallback(defaultValue, fmt.Sprintf("%s: cannot parse %q (%v), using default %v", envKey, raw, err, defaultValue))
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(defaultValue, fmt.Sprintf("%s: %v, using default %v", envKey, err, defaultValue))
		}
	}
	return ConfigLoadResult{Value: value}
}

func fallback(value interface{}, warning string) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           value,
		Warnings:        []string{warning},
		FallbackApplied: true,
	}
}
