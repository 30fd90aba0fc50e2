package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if DISTILL_CONFIG is set
//  3. env (prefix DISTILL_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("DISTILL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DISTILL_ADDR, DISTILL_MODE, DISTILL_TEACHER_URL, ...
	// Map env keys like DISTILL_TEACHER_URL -> teacher_url (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DISTILL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "distill_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the pipeline cannot run with. Config
// errors are fatal at startup.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Mode != "shadow" && c.Mode != "active":
		return fmt.Errorf("%w: mode must be shadow or active, got %q", ErrInvalidConfig, c.Mode)
	case c.TeacherURL == "":
		return fmt.Errorf("%w: teacher_url must not be empty", ErrInvalidConfig)
	case c.ModelDir == "":
		return fmt.Errorf("%w: model_dir must not be empty", ErrInvalidConfig)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("%w: confidence_threshold must be in [0,1]", ErrInvalidConfig)
	case c.RegressionTolerance < 0:
		return fmt.Errorf("%w: regression_tolerance must not be negative", ErrInvalidConfig)
	case c.MinTrainSamples < 1:
		return fmt.Errorf("%w: min_train_samples must be positive", ErrInvalidConfig)
	}
	return nil
}
