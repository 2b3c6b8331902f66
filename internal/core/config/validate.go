package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/crucibot/internal/core/styles"
	"github.com/colonyops/crucibot/internal/core/validate"
)

// Validate checks that the configuration is structurally valid. Connection
// settings are checked separately by ValidateCredentials so commands that
// never talk to the server (lint) work without them.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("data directory cannot be empty"))
	}
	if c.Crucible.Timeout <= 0 {
		errs = errs.Append("crucible.timeout", fmt.Errorf("must be positive"))
	}
	if c.Pipeline.Concurrency < 1 {
		errs = errs.Append("pipeline.concurrency", fmt.Errorf("must be at least 1"))
	}
	if !c.Pipeline.FailureMode.IsValid() {
		errs = errs.Append("pipeline.failure_mode", fmt.Errorf("invalid mode %q (want %s or %s)", c.Pipeline.FailureMode, FailureAbort, FailureIsolate))
	}
	if _, ok := styles.GetPalette(c.Theme); !ok {
		errs = errs.Append("theme", fmt.Errorf("unknown theme %q (available: %s)", c.Theme, strings.Join(styles.ThemeNames(), ", ")))
	}
	if !c.Validators.JSHint.IsEnabled() {
		errs = errs.Append("validators", fmt.Errorf("at least one validator must be enabled"))
	}

	return criterio.ValidateStruct(
		criterio.Run("crucible.filter", c.Crucible.Filter, validate.OneOf(FilterToReview, FilterAllOpenReviews)),
		errs.ToError(),
		c.validateExcludes(),
	)
}

// ValidateCredentials checks the settings needed to talk to the server.
func (c *Config) ValidateCredentials() error {
	return criterio.ValidateStruct(
		criterio.Run("crucible.url", c.Crucible.URL, validate.HTTPURL),
		criterio.Run("crucible.username", c.Crucible.Username, validate.Required),
		criterio.Run("crucible.password", c.Crucible.Password, validate.Required),
	)
}

// ValidateDeep performs Validate plus file accessibility checks for the
// config file, data directory and .jshintrc.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("validators.jshint.config_file", c.JSHintConfigPath(), isFileOrEmpty),
	)
}

func (c *Config) validateExcludes() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Paths.Exclude {
		if err := validate.Glob(pattern); err != nil {
			errs = errs.Append(fmt.Sprintf("paths.exclude[%d]", i), err)
		}
	}
	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func isFileOrEmpty(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}
