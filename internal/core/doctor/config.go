package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/crucibot/internal/core/config"
)

// ConfigCheck validates the loaded configuration, including file accessibility
// and the server credentials.
type ConfigCheck struct {
	cfg        *config.Config
	configPath string
}

// NewConfigCheck creates a new configuration check.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, configPath: configPath}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	switch _, err := os.Stat(c.configPath); {
	case c.configPath == "":
		result.add("config file", StatusWarn, "no config file, using defaults")
	case os.IsNotExist(err):
		result.add("config file", StatusWarn, fmt.Sprintf("%s not found, using defaults", c.configPath))
	default:
		result.add("config file", StatusPass, c.configPath)
	}

	if c.cfg == nil {
		result.add("config", StatusFail, "configuration not loaded")
		return result
	}

	addFieldErrors(&result, c.cfg.ValidateDeep(c.configPath), "structure")
	addFieldErrors(&result, c.cfg.ValidateCredentials(), "credentials")

	return result
}

// addFieldErrors reports each criterio field error as a failed item, or a
// single passing item labelled ok when err is nil.
func addFieldErrors(r *Result, err error, ok string) {
	if err == nil {
		r.add(ok, StatusPass, "")
		return
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		r.add(ok, StatusFail, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		r.add(fe.Field, StatusFail, fe.Err.Error())
	}
}
