// Package config loads the application configuration from a .env file, an
// optional YAML file, ZEITSTRAHL_ environment variables and command-line
// flags, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into the config.
// Nested keys are separated by a double underscore, e.g.
// ZEITSTRAHL_GENERATOR__API_KEY.
const EnvPrefix = "ZEITSTRAHL_"

type Config struct {
	HTTP      HTTP      `koanf:"http"`
	Database  Database  `koanf:"database"`
	Log       Log       `koanf:"log"`
	Media     Media     `koanf:"media"`
	Generator Generator `koanf:"generator"`
	Reconcile Reconcile `koanf:"reconcile"`
	Sync      Sync      `koanf:"sync"`
}

type HTTP struct {
	Addr        string   `koanf:"addr" validate:"required"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type Database struct {
	Path string `koanf:"path" validate:"required"`
}

type Log struct {
	Mode string `koanf:"mode" validate:"oneof=development production"`
}

type Media struct {
	Dir string `koanf:"dir" validate:"required"`
}

type Generator struct {
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model" validate:"required"`
	Language   string        `koanf:"language" validate:"required"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries int           `koanf:"max_retries" validate:"min=0,max=10"`
}

type Reconcile struct {
	Strategy string `koanf:"strategy" validate:"oneof=positional identity"`
}

type Sync struct {
	ReposDir    string        `koanf:"repos_dir" validate:"required"`
	Interval    time.Duration `koanf:"interval" validate:"min=0"`
	Concurrency int           `koanf:"concurrency" validate:"min=1"`
}

// Flags returns a flag set carrying every configuration key with its
// default value, plus --config and --env-file.
func Flags(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("config", "", "Path to a YAML configuration file")
	f.String("env-file", ".env", "Path to a .env file; ignored when missing")

	f.String("http.addr", ":8080", "HTTP listen address")
	f.StringSlice("http.cors_origins", []string{"http://localhost:3000", "http://localhost:8081"}, "Allowed CORS origins")
	f.String("database.path", "zeitstrahl.db", "Path to the SQLite database file")
	f.String("log.mode", "development", "Log mode: development or production")
	f.String("media.dir", "media", "Directory for uploaded images")
	f.String("generator.base_url", "https://generativelanguage.googleapis.com/v1beta", "Generative language API base URL")
	f.String("generator.api_key", "", "Generative language API key (falls back to GEMINI_API_KEY)")
	f.String("generator.model", "gemini-2.5-flash", "Model used to generate flashcards")
	f.String("generator.language", "Deutsch", "Language of generated flashcards")
	f.Duration("generator.timeout", 60*time.Second, "Timeout of one generation request")
	f.Int("generator.max_retries", 2, "Retries on rate limits and server errors")
	f.String("reconcile.strategy", "positional", "How submitted child rows are matched: positional or identity")
	f.String("sync.repos_dir", "repos", "Directory where git sources are cloned")
	f.Duration("sync.interval", 0, "Interval of the background source sync; 0 disables it")
	f.Int("sync.concurrency", 4, "Number of git sources fetched in parallel")
	return f
}

// Load builds the configuration from a parsed flag set.
func Load(f *pflag.FlagSet) (*Config, error) {
	envFile, _ := f.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Flags override the sources above only when set explicitly; their
	// defaults fill the remaining keys.
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Generator.APIKey == "" {
		cfg.Generator.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps ZEITSTRAHL_GENERATOR__API_KEY to generator.api_key.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
