package doctor

import (
	"context"
	"fmt"

	"github.com/colonyops/crucibot/internal/ledger"
)

// LedgerCheck opens the posted-comment ledger and reports its size.
type LedgerCheck struct {
	enabled bool
	path    string
}

// NewLedgerCheck creates a new ledger check.
func NewLedgerCheck(enabled bool, path string) *LedgerCheck {
	return &LedgerCheck{enabled: enabled, path: path}
}

func (c *LedgerCheck) Name() string {
	return "Comment Ledger"
}

func (c *LedgerCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if !c.enabled {
		result.add("ledger", StatusWarn, "disabled, comments may be duplicated on rerun")
		return result
	}

	l, err := ledger.Open(ctx, c.path)
	if err != nil {
		result.add(c.path, StatusFail, err.Error())
		return result
	}
	defer func() { _ = l.Close() }()

	n, err := l.Count(ctx, "")
	if err != nil {
		result.add(c.path, StatusFail, err.Error())
		return result
	}
	result.add(c.path, StatusPass, fmt.Sprintf("%d comments recorded", n))

	return result
}
