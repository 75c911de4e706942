package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns the variable parsed as uint64, or the default value if
// not set or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvOptionalInt returns the variable parsed as int64, or the default
// pointer if not set or invalid.
func getEnvOptionalInt(key string, defaultVal *int64) *int64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return &parsed
		}
	}
	return defaultVal
}

// getEnvBytes returns the variable parsed as a human size ("24GiB"), or the
// default value if not set or invalid.
func getEnvBytes(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := humanize.ParseBytes(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the variable parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the variable parsed as time.Duration, or the default
// value if not set or invalid. Accepts formats like "5m", "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// modeFlagSet reports whether --index or --digits was given. The pair is
// overridden as a unit so a flag never combines with an inherited mode.
func modeFlagSet(fs *pflag.FlagSet) bool {
	return fs.Changed("index") || fs.Changed("digits")
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
//
// Supported environment variables:
//   - MEGACALC_KIND: Sequence to calculate (fib, fact, prime)
//   - MEGACALC_INDEX, MEGACALC_DIGITS: Target in index or digit mode (int)
//   - MEGACALC_TIMEOUT, MEGACALC_SAMPLE_INTERVAL: Durations ("5m", "100ms")
//   - MEGACALC_MAX_MEMORY: Memory ceiling ("24GiB")
//   - MEGACALC_MAX_PRIME_INDEX, MEGACALC_MAX_TARGET: Ceilings (uint64)
//   - MEGACALC_OUTPUT_DIR, MEGACALC_PORT, MEGACALC_BACKEND, MEGACALC_LOG_LEVEL: Strings
//   - MEGACALC_STRICT, MEGACALC_DRY_RUN, MEGACALC_BENCHMARK, MEGACALC_COMPRESS,
//     MEGACALC_QUIET, MEGACALC_JSON, MEGACALC_NO_COLOR, MEGACALC_SERVER: Booleans
//   - MEGACALC_CONFIG: Path to a YAML configuration file
func applyEnvOverrides(config *AppConfig, fs *pflag.FlagSet) {
	applyModeOverrides(config, fs)
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyModeOverrides(config *AppConfig, fs *pflag.FlagSet) {
	if modeFlagSet(fs) {
		return
	}
	index := getEnvOptionalInt("INDEX", nil)
	digits := getEnvOptionalInt("DIGITS", nil)
	if index != nil || digits != nil {
		config.Index, config.Digits = index, digits
	}
}

func applyNumericOverrides(config *AppConfig, fs *pflag.FlagSet) {
	if !fs.Changed("max-memory") {
		config.MaxMemory = getEnvBytes("MAX_MEMORY", config.MaxMemory)
	}
	if !fs.Changed("max-prime-index") {
		config.MaxPrimeIndex = getEnvUint64("MAX_PRIME_INDEX", config.MaxPrimeIndex)
	}
	if !fs.Changed("max-target") {
		config.MaxServerTarget = getEnvUint64("MAX_TARGET", config.MaxServerTarget)
	}
}

func applyDurationOverrides(config *AppConfig, fs *pflag.FlagSet) {
	if !fs.Changed("timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
	if !fs.Changed("sample-interval") {
		config.SampleInterval = getEnvDuration("SAMPLE_INTERVAL", config.SampleInterval)
	}
}

func applyStringOverrides(config *AppConfig, fs *pflag.FlagSet) {
	config.Kind = getEnvString("KIND", config.Kind)
	if !fs.Changed("output-dir") {
		config.OutputDir = getEnvString("OUTPUT_DIR", config.OutputDir)
	}
	if !fs.Changed("port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !fs.Changed("backend") {
		config.Backend = getEnvString("BACKEND", config.Backend)
	}
	if !fs.Changed("log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *pflag.FlagSet) {
	flags := []struct {
		flag, env string
		field     *bool
	}{
		{"strict", "STRICT", &config.Strict},
		{"dry-run", "DRY_RUN", &config.DryRun},
		{"benchmark", "BENCHMARK", &config.Benchmark},
		{"compress", "COMPRESS", &config.Compress},
		{"quiet", "QUIET", &config.Quiet},
		{"json", "JSON", &config.JSONOutput},
		{"no-color", "NO_COLOR", &config.NoColor},
		{"server", "SERVER", &config.ServerMode},
	}
	for _, f := range flags {
		if !fs.Changed(f.flag) {
			*f.field = getEnvBool(f.env, *f.field)
		}
	}
}
