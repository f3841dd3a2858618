package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	envFilePath string
	parseOnce   sync.Once
)

// MustNew is New, panicking on error. Intended for process startup
// where a bad config should abort immediately.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads an env file (from -env, ENV_FILE, or a local .env when
// present) into the process environment, then fills T from environment
// variables using the given envconfig prefix.
func New[T any](prefix string) (*T, error) {
	path := resolveEnvPath()
	if path != "" {
		if err := exportEnvironment(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return nil, fmt.Errorf("load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	if trimmed := strings.TrimSpace(envFilePath); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv("ENV_FILE"))
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

// exportEnvironment flattens the file into process env vars so that
// envconfig sees file values and real env vars through one surface.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		if err := os.Setenv(strings.ToUpper(k), fmt.Sprint(val)); err != nil {
			return err
		}
	}

	return nil
}
