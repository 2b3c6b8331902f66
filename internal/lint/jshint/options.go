package jshint

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxErr is the number of findings reported before a file is given up on.
const DefaultMaxErr = 50

// Options mirrors the subset of .jshintrc options the validator enforces.
// Unknown options are ignored so existing .jshintrc files load unchanged.
type Options struct {
	// EqEqEq requires === and !== instead of == and !=.
	EqEqEq bool `json:"eqeqeq" yaml:"eqeqeq"`
	// Debug allows debugger statements.
	Debug bool `json:"debug" yaml:"debug"`
	// Evil allows eval.
	Evil bool `json:"evil" yaml:"evil"`
	// WithStmt allows with statements.
	WithStmt bool `json:"withstmt" yaml:"withstmt"`
	// MaxLen is the maximum line length in characters; 0 disables the check.
	MaxLen int `json:"maxlen" yaml:"maxlen"`
	// Trailing reports trailing whitespace.
	Trailing bool `json:"trailing" yaml:"trailing"`
	// MaxErr caps the findings per file; 0 means DefaultMaxErr.
	MaxErr int `json:"maxerr" yaml:"maxerr"`
}

// LoadOptions reads a .jshintrc file. The file may be JSON (with // line
// comments, as jshint allows) or YAML.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read jshint options: %w", err)
	}

	opts, err := ParseOptions(data)
	if err != nil {
		return Options{}, fmt.Errorf("parse jshint options %s: %w", path, err)
	}
	return opts, nil
}

// ParseOptions decodes .jshintrc content.
func ParseOptions(data []byte) (Options, error) {
	var opts Options
	data = stripLineComments(data)

	// .jshintrc files are JSON and often tab indented, which YAML rejects.
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		if err := json.Unmarshal(data, &opts); err != nil {
			return Options{}, err
		}
	} else if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, err
	}
	if opts.MaxLen < 0 || opts.MaxErr < 0 {
		return Options{}, fmt.Errorf("maxlen and maxerr must not be negative")
	}
	return opts, nil
}

// Merge returns o with every option set in override applied on top.
// Boolean options can only be switched on by an override.
func (o Options) Merge(override Options) Options {
	o.EqEqEq = o.EqEqEq || override.EqEqEq
	o.Debug = o.Debug || override.Debug
	o.Evil = o.Evil || override.Evil
	o.WithStmt = o.WithStmt || override.WithStmt
	o.Trailing = o.Trailing || override.Trailing
	if override.MaxLen > 0 {
		o.MaxLen = override.MaxLen
	}
	if override.MaxErr > 0 {
		o.MaxErr = override.MaxErr
	}
	return o
}

func (o Options) maxErr() int {
	if o.MaxErr <= 0 {
		return DefaultMaxErr
	}
	return o.MaxErr
}

// stripLineComments drops lines that only hold a // comment.
func stripLineComments(data []byte) []byte {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
