package doctor

import (
	"context"
	"strings"

	"github.com/colonyops/crucibot/internal/lint"
)

// ValidatorsCheck reports the validators that will run and the file types
// they cover.
type ValidatorsCheck struct {
	registry *lint.Registry
	buildErr error
}

// NewValidatorsCheck creates a validators check. buildErr is the error, if
// any, returned while building the registry from configuration.
func NewValidatorsCheck(registry *lint.Registry, buildErr error) *ValidatorsCheck {
	return &ValidatorsCheck{registry: registry, buildErr: buildErr}
}

func (c *ValidatorsCheck) Name() string {
	return "Validators"
}

func (c *ValidatorsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if c.buildErr != nil {
		result.add("registry", StatusFail, c.buildErr.Error())
		return result
	}
	if c.registry == nil || c.registry.Len() == 0 {
		result.add("registry", StatusFail, "no validators enabled")
		return result
	}

	for _, v := range c.registry.Validators() {
		result.add(v.Name(), StatusPass, strings.Join(v.SupportedExtensions(), ", "))
	}

	return result
}
