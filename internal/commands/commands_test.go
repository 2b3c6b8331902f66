package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/crucibot/internal/lint"
	"github.com/colonyops/crucibot/internal/lint/jshint"
	"github.com/colonyops/crucibot/internal/pipeline"
)

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat(FormatText))
	assert.NoError(t, validateFormat(FormatJSON))
	assert.Error(t, validateFormat("yaml"))
}

func TestLintFiles(t *testing.T) {
	dir := t.TempDir()
	js := filepath.Join(dir, "app.js")
	py := filepath.Join(dir, "tool.py")
	require.NoError(t, os.WriteFile(js, []byte("var a = 1;\ndebugger;\n"), 0o644))
	require.NoError(t, os.WriteFile(py, []byte("print(1)\n"), 0o644))

	registry := lint.NewRegistry(jshint.New(jshint.Options{}))

	results, err := lintFiles(registry, []string{js, py})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, results[0].Findings, 1)
	assert.Equal(t, 2, results[0].Findings[0].Line)
	assert.Equal(t, "Forgotten 'debugger' statement?", results[0].Findings[0].Message)

	assert.True(t, results[1].Skipped)
	assert.Empty(t, results[1].Findings)

	var buf bytes.Buffer
	writeFindings(&buf, results, 1)
	assert.Contains(t, buf.String(), js+":2:1: Forgotten 'debugger' statement?")
	assert.Contains(t, buf.String(), "1 finding(s)")
}

func TestLintFiles_MissingFile(t *testing.T) {
	registry := lint.NewRegistry(jshint.New(jshint.Options{}))

	_, err := lintFiles(registry, []string{filepath.Join(t.TempDir(), "missing.js")})
	require.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	report := &pipeline.Report{
		Reviews: []pipeline.ReviewResult{
			{ID: "CR-1", Items: 2, Counts: pipeline.Counts{Validated: 2, Findings: 3, Posted: 3}, Completed: true},
			{ID: "CR-2", Error: "expand review CR-2: boom"},
		},
	}

	var buf bytes.Buffer
	writeReport(&buf, report)

	out := buf.String()
	assert.Contains(t, out, "CR-1")
	assert.Contains(t, out, "2 items, 2 validated, 3 findings, 3 posted")
	assert.Contains(t, out, "expand review CR-2: boom")
	assert.Contains(t, out, "1 completed")
	assert.Contains(t, out, "1 failed")
}

func TestWriteReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, &pipeline.Report{DryRun: true})
	assert.Contains(t, buf.String(), "dry run")
	assert.Contains(t, buf.String(), "no open reviews")
}

func TestFieldErrors(t *testing.T) {
	assert.Nil(t, fieldErrors(nil))

	plain := fieldErrors(errors.New("broken"))
	assert.Equal(t, []fieldError{{Field: "config", Message: "broken"}}, plain)

	err := criterio.ValidateStruct(criterio.NewFieldErrors("crucible.url", fmt.Errorf("is required")))
	assert.Equal(t, []fieldError{{Field: "crucible.url", Message: "is required"}}, fieldErrors(err))
}
