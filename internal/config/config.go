// Package config provides the configuration management for the megacalc application.
// It defines the data structure for the configuration, binds it to command-line
// flags, layers the environment and an optional YAML file underneath, and
// performs validation on the resulting values.
//
// Precedence, highest first: flags, MEGACALC_* environment variables, the YAML
// file named by --config, defaults.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/governor"
	"github.com/agbru/megacalc/internal/prime"
	"github.com/agbru/megacalc/internal/sequence"
)

const (
	// EnvPrefix is the prefix for all environment variables used by megacalc.
	EnvPrefix = "MEGACALC_"
)

// Default configuration values.
const (
	// DefaultTimeout is the default wall-clock limit of a governed run.
	DefaultTimeout = governor.DefaultMaxDuration
	// DefaultMaxMemory is the default memory ceiling in bytes.
	DefaultMaxMemory = governor.DefaultMaxMemoryBytes
	// DefaultSampleInterval is the default memory sampling period.
	DefaultSampleInterval = governor.DefaultSampleInterval
	// DefaultOutputDir is where result files are written.
	DefaultOutputDir = "results"
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultLogLevel is the default zerolog level.
	DefaultLogLevel = "info"
	// DefaultMaxServerTarget caps index and digit targets accepted over HTTP.
	DefaultMaxServerTarget uint64 = 10_000_000
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Kind is the sequence name as typed by the user: fib, fact or prime.
	Kind string
	// Index selects index mode. Nil when not given.
	Index *int64
	// Digits selects digit mode: the smallest member with at least this many
	// decimal digits. Nil when not given.
	Digits *int64
	// Strict aborts the run when the estimated time exceeds Timeout.
	Strict bool
	// DryRun estimates the run time and stops without calculating.
	DryRun bool
	// Benchmark always runs the estimator before calculating.
	Benchmark bool
	// Timeout is the wall-clock limit of a governed run.
	Timeout time.Duration
	// MaxMemory is the memory ceiling of a governed run, in bytes.
	MaxMemory uint64
	// SampleInterval is the memory sampling period of the governor.
	SampleInterval time.Duration
	// OutputDir receives the timestamped result file. Empty disables it.
	OutputDir string
	// Compress writes the result file zstd-compressed.
	Compress bool
	// Quiet prints only the value, for scripting.
	Quiet bool
	// JSONOutput prints the result as a JSON document.
	JSONOutput bool
	// NoColor disables colored output. NO_COLOR is honored as well.
	NoColor bool
	// ServerMode starts the HTTP server instead of a single calculation.
	ServerMode bool
	// Port is the listen port in server mode.
	Port string
	// MaxServerTarget caps targets accepted by the HTTP server.
	MaxServerTarget uint64
	// Backend selects the engine implementation, "big" or "gmp".
	Backend string
	// LogLevel is the zerolog level name.
	LogLevel string
	// MaxPrimeIndex is the largest accepted prime index.
	MaxPrimeIndex uint64
	// ConfigFile is the path of an optional YAML configuration file.
	ConfigFile string
}

// Default returns the configuration used when nothing is overridden.
func Default() AppConfig {
	return AppConfig{
		Timeout:         DefaultTimeout,
		MaxMemory:       DefaultMaxMemory,
		SampleInterval:  DefaultSampleInterval,
		OutputDir:       DefaultOutputDir,
		Port:            DefaultPort,
		MaxServerTarget: DefaultMaxServerTarget,
		Backend:         sequence.DefaultBackend,
		LogLevel:        DefaultLogLevel,
		MaxPrimeIndex:   prime.MaxPrimeIndex,
	}
}

// RegisterFlags binds every field to fs, using the current values as defaults.
func (c *AppConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.VarP(optionalInt{&c.Index}, "index", "i", "Calculate by index (nth number).")
	fs.VarP(optionalInt{&c.Digits}, "digits", "d", "Calculate the first member with at least this many digits.")
	fs.BoolVar(&c.Strict, "strict", c.Strict, "Abort if the estimated time exceeds the timeout.")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun, "Print the estimated time without calculating.")
	fs.BoolVar(&c.Benchmark, "benchmark", c.Benchmark, "Always run the estimation benchmark first.")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Maximum execution time of the calculation.")
	fs.Var(byteSize{&c.MaxMemory}, "max-memory", "Memory ceiling, e.g. 24GiB or 512MB.")
	fs.DurationVar(&c.SampleInterval, "sample-interval", c.SampleInterval, "Memory sampling period.")
	fs.StringVar(&c.OutputDir, "output-dir", c.OutputDir, "Directory for result files (empty to disable).")
	fs.BoolVar(&c.Compress, "compress", c.Compress, "Write the result file zstd-compressed.")
	fs.BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "Quiet mode - print only the value.")
	fs.BoolVar(&c.JSONOutput, "json", c.JSONOutput, "Output the result in JSON format.")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output (also respects NO_COLOR).")
	fs.BoolVar(&c.ServerMode, "server", c.ServerMode, "Start in HTTP server mode.")
	fs.StringVar(&c.Port, "port", c.Port, "Port to listen on in server mode.")
	fs.Uint64Var(&c.MaxServerTarget, "max-target", c.MaxServerTarget, "Largest index or digit count accepted by the server.")
	fs.StringVar(&c.Backend, "backend", c.Backend, "Engine backend: big or gmp (gmp builds only).")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error.")
	fs.Uint64Var(&c.MaxPrimeIndex, "max-prime-index", c.MaxPrimeIndex, "Largest accepted prime index.")
	fs.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "Path to a YAML configuration file.")

	fs.SetNormalizeFunc(NormalizeFlagName)
}

// NormalizeFlagName keeps --min-digits as an alias of --digits.
func NormalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "min-digits" {
		name = "digits"
	}
	return pflag.NormalizedName(name)
}

// Resolve layers the YAML file and the environment under the flags that were
// set explicitly in fs, then validates the result. A Kind already set by the
// caller, typically from a positional argument, counts as a flag.
//
// Parameters:
//   - fs: The parsed flag set RegisterFlags was called on.
//   - backends: The backend names the engine registry knows.
//
// Returns:
//   - error: A ConfigError if the file or the final values are invalid.
func (c *AppConfig) Resolve(fs *pflag.FlagSet, backends []string) error {
	kindArg := c.Kind
	if !fs.Changed("config") {
		c.ConfigFile = getEnvString("CONFIG", c.ConfigFile)
	}
	if c.ConfigFile != "" {
		if err := applyFile(c, fs, c.ConfigFile); err != nil {
			return err
		}
	}
	applyEnvOverrides(c, fs)
	if kindArg != "" {
		c.Kind = kindArg
	}

	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	c.Backend = strings.ToLower(c.Backend)
	c.LogLevel = strings.ToLower(c.LogLevel)
	return c.Validate(backends)
}

// Validate checks the semantic consistency of the configuration parameters.
// Request-level checks such as index/digits exclusivity belong to ToRequest.
//
// Parameters:
//   - backends: The valid backend names.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(backends []string) error {
	if err := c.ToLimits().Validate(); err != nil {
		return err
	}
	if !slices.Contains(backends, c.Backend) {
		return apperrors.NewConfigError("unrecognized backend: '%s'. Valid backends are: [%s]", c.Backend, strings.Join(backends, ", "))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}
	if c.MaxPrimeIndex == 0 {
		return apperrors.NewConfigError("max prime index must be strictly positive")
	}
	if c.MaxServerTarget == 0 {
		return apperrors.NewConfigError("max server target must be strictly positive")
	}
	if c.Port == "" {
		return apperrors.NewConfigError("port must not be empty")
	}
	if c.Kind != "" {
		if _, err := sequence.ParseKind(c.Kind); err != nil {
			return apperrors.NewConfigError("%v", err)
		}
	}
	return nil
}

// ToLimits converts the configuration into governor limits.
func (c AppConfig) ToLimits() governor.Limits {
	return governor.Limits{
		MaxMemoryBytes: c.MaxMemory,
		MaxDuration:    c.Timeout,
		SampleInterval: c.SampleInterval,
	}
}

// ToRequest builds the validated calculation request.
//
// Returns:
//   - sequence.Request: The request.
//   - error: An InputError if the kind is missing or unknown, or the
//     index/digits pair is inconsistent.
func (c AppConfig) ToRequest() (sequence.Request, error) {
	if c.Kind == "" {
		return sequence.Request{}, apperrors.NewInputError("kind", "a sequence (fib, fact or prime) must be provided", nil)
	}
	kind, err := sequence.ParseKind(c.Kind)
	if err != nil {
		return sequence.Request{}, err
	}
	return sequence.NewRequest(kind, c.Index, c.Digits, c.Strict)
}

// String summarizes the effective settings for debug logs.
func (c AppConfig) String() string {
	return fmt.Sprintf("kind=%s timeout=%s max_memory=%d backend=%s strict=%t",
		c.Kind, c.Timeout, c.MaxMemory, c.Backend, c.Strict)
}
