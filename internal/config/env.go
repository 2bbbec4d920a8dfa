package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvConfig holds SPOOKHUNT_* overrides. Unset variables stay nil.
type EnvConfig struct {
	Catalog       *string `env:"SPOOKHUNT_CATALOG"`
	Namespace     *string `env:"SPOOKHUNT_NAMESPACE"`
	Backend       *string `env:"SPOOKHUNT_BACKEND"`
	DB            *string `env:"SPOOKHUNT_DB"`
	RedisAddr     *string `env:"SPOOKHUNT_REDIS_ADDR"`
	RedisPassword *string `env:"SPOOKHUNT_REDIS_PASSWORD"`
	RedisDB       *int    `env:"SPOOKHUNT_REDIS_DB"`
	LogLevel      *string `env:"SPOOKHUNT_LOG_LEVEL"`
	LogFile       *string `env:"SPOOKHUNT_LOG_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads the given .env files (default ".env") without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadEnv reads SPOOKHUNT_* variables.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := ParseEnv(&cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Overlay copies every set variable onto file; the environment wins over the
// config file.
func (e EnvConfig) Overlay(file *FileConfig) {
	set := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	set(&file.Hunt.Catalog, e.Catalog)
	set(&file.Hunt.Namespace, e.Namespace)
	set(&file.Hunt.Backend, e.Backend)
	set(&file.Hunt.DB, e.DB)
	set(&file.Redis.Addr, e.RedisAddr)
	set(&file.Redis.Password, e.RedisPassword)
	if e.RedisDB != nil {
		file.Redis.DB = e.RedisDB
	}
	set(&file.Log.Level, e.LogLevel)
	set(&file.Log.File, e.LogFile)
}
