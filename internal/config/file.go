package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/megacalc/internal/errors"
)

// fileConfig is the YAML form of AppConfig. Absent keys stay nil and leave
// the current value untouched.
type fileConfig struct {
	Kind           *string        `yaml:"kind"`
	Index          *int64         `yaml:"index"`
	Digits         *int64         `yaml:"digits"`
	Strict         *bool          `yaml:"strict"`
	DryRun         *bool          `yaml:"dry_run"`
	Benchmark      *bool          `yaml:"benchmark"`
	Timeout        *time.Duration `yaml:"timeout"`
	MaxMemory      *string        `yaml:"max_memory"`
	SampleInterval *time.Duration `yaml:"sample_interval"`
	OutputDir      *string        `yaml:"output_dir"`
	Compress       *bool          `yaml:"compress"`
	Quiet          *bool          `yaml:"quiet"`
	JSON           *bool          `yaml:"json"`
	NoColor        *bool          `yaml:"no_color"`
	Server         *bool          `yaml:"server"`
	Port           *string        `yaml:"port"`
	MaxTarget      *uint64        `yaml:"max_target"`
	Backend        *string        `yaml:"backend"`
	LogLevel       *string        `yaml:"log_level"`
	MaxPrimeIndex  *uint64        `yaml:"max_prime_index"`
}

// loadFile reads and decodes a YAML configuration file. Unknown keys are
// rejected.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("reading config file %s: %v", path, err)
	}
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewConfigError("parsing config file %s: %v", path, err)
	}
	return &fc, nil
}

// applyFile copies the values of the file at path into config for every flag
// fs did not set.
func applyFile(config *AppConfig, fs *pflag.FlagSet, path string) error {
	fc, err := loadFile(path)
	if err != nil {
		return err
	}

	if config.Kind == "" && fc.Kind != nil {
		config.Kind = *fc.Kind
	}
	if !modeFlagSet(fs) && (fc.Index != nil || fc.Digits != nil) {
		config.Index, config.Digits = fc.Index, fc.Digits
	}
	if fc.MaxMemory != nil && !fs.Changed("max-memory") {
		v, err := humanize.ParseBytes(*fc.MaxMemory)
		if err != nil {
			return apperrors.NewConfigError("config file %s: max_memory: %v", path, err)
		}
		config.MaxMemory = v
	}

	setIf(fs, "strict", fc.Strict, &config.Strict)
	setIf(fs, "dry-run", fc.DryRun, &config.DryRun)
	setIf(fs, "benchmark", fc.Benchmark, &config.Benchmark)
	setIf(fs, "timeout", fc.Timeout, &config.Timeout)
	setIf(fs, "sample-interval", fc.SampleInterval, &config.SampleInterval)
	setIf(fs, "output-dir", fc.OutputDir, &config.OutputDir)
	setIf(fs, "compress", fc.Compress, &config.Compress)
	setIf(fs, "quiet", fc.Quiet, &config.Quiet)
	setIf(fs, "json", fc.JSON, &config.JSONOutput)
	setIf(fs, "no-color", fc.NoColor, &config.NoColor)
	setIf(fs, "server", fc.Server, &config.ServerMode)
	setIf(fs, "port", fc.Port, &config.Port)
	setIf(fs, "max-target", fc.MaxTarget, &config.MaxServerTarget)
	setIf(fs, "backend", fc.Backend, &config.Backend)
	setIf(fs, "log-level", fc.LogLevel, &config.LogLevel)
	setIf(fs, "max-prime-index", fc.MaxPrimeIndex, &config.MaxPrimeIndex)
	return nil
}

func setIf[T any](fs *pflag.FlagSet, flag string, src *T, dst *T) {
	if src != nil && !fs.Changed(flag) {
		*dst = *src
	}
}
