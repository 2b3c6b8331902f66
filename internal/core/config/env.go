package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration.
const (
	EnvURL      = "CRUCIBLE_URL"
	EnvUsername = "CRUCIBLE_USERNAME"
	EnvPassword = "CRUCIBLE_PASSWORD"
)

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is not an error
// unless required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides connection settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvURL); v != "" {
		c.Crucible.URL = v
	}
	if v := getenv(EnvUsername); v != "" {
		c.Crucible.Username = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Crucible.Password = v
	}
}
