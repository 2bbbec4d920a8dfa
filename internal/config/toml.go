// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/spookhunt/internal/model"
)

// Progress backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Hunt  HuntConfig  `toml:"hunt"`
	Redis RedisConfig `toml:"redis"`
	Scare ScareConfig `toml:"scare"`
	Log   LogConfig   `toml:"log"`
}

// HuntConfig maps session settings.
type HuntConfig struct {
	Catalog   *string `toml:"catalog"`
	Namespace *string `toml:"namespace"`
	Backend   *string `toml:"backend"`
	DB        *string `toml:"db"`
}

// RedisConfig maps the Redis backend settings.
type RedisConfig struct {
	Addr     *string `toml:"addr"`
	Password *string `toml:"password"`
	DB       *int    `toml:"db"`
}

// ScareConfig overrides the session-wide default scare.
type ScareConfig struct {
	Enabled     *bool    `toml:"enabled"`
	Probability *float64 `toml:"probability"`
	DurationMs  *int     `toml:"duration-ms"`
	Image       *string  `toml:"image"`
	Video       *string  `toml:"video"`
	Sound       *string  `toml:"sound"`
	OverlayText *string  `toml:"overlay-text"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// DefaultScare is the session-wide scare used when neither the catalog nor the
// config file provides one.
func DefaultScare() model.EffectConfig {
	return model.EffectConfig{
		Enabled:     true,
		Probability: model.Float64(0.25),
		Duration:    1400 * time.Millisecond,
		ImageURL:    "assets/scare-default.png",
	}
}

// Apply overlays the set fields onto base and returns the result.
func (s ScareConfig) Apply(base model.EffectConfig) (model.EffectConfig, error) {
	out := base
	if s.Enabled != nil {
		out.Enabled = *s.Enabled
	}
	if s.Probability != nil {
		if *s.Probability < 0 || *s.Probability > 1 {
			return base, fmt.Errorf("scare probability must be between 0 and 1")
		}
		out.Probability = model.Float64(*s.Probability)
	}
	if s.DurationMs != nil {
		if *s.DurationMs < 0 {
			return base, fmt.Errorf("scare duration-ms must be >= 0")
		}
		out.Duration = time.Duration(*s.DurationMs) * time.Millisecond
	}
	if s.Image != nil {
		out.ImageURL = *s.Image
	}
	if s.Video != nil {
		out.VideoURL = *s.Video
	}
	if s.Sound != nil {
		out.SoundURL = *s.Sound
	}
	if s.OverlayText != nil {
		out.OverlayText = *s.OverlayText
	}
	return out, nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
