// Package lint defines the validator capability used by the review pipeline
// and a registry that resolves validators by file extension.
package lint

import (
	"path"
	"slices"
	"sort"
	"strings"
)

// Finding is a single issue reported by a validator.
type Finding struct {
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator lints source text. Validate must be a pure function of its input
// and the validator's static options.
type Validator interface {
	Name() string
	// SupportedExtensions returns lower-case extensions including the dot, e.g. ".js".
	SupportedExtensions() []string
	Validate(content string) []Finding
}

// SortFindings orders findings by line, then column. The sort is stable so
// findings on the same position keep their reported order.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Column < findings[j].Column
	})
}

// Registry is an ordered set of validators resolved at configuration time.
type Registry struct {
	validators []Validator
}

// NewRegistry creates a registry holding validators in the given order.
func NewRegistry(validators ...Validator) *Registry {
	r := &Registry{}
	for _, v := range validators {
		r.Register(v)
	}
	return r
}

// Register appends v to the registry.
func (r *Registry) Register(v Validator) {
	r.validators = append(r.validators, v)
}

// Validators returns the registered validators in registration order.
func (r *Registry) Validators() []Validator {
	return slices.Clone(r.validators)
}

// Len returns the number of registered validators.
func (r *Registry) Len() int { return len(r.validators) }

// Extensions returns the sorted union of all supported extensions.
func (r *Registry) Extensions() []string {
	seen := make(map[string]struct{})
	for _, v := range r.validators {
		for _, ext := range v.SupportedExtensions() {
			seen[strings.ToLower(ext)] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for ext := range seen {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// For returns the validators that support the extension of p. Only the path
// portion is considered, so query strings on content URLs are ignored.
func (r *Registry) For(p string) []Validator {
	ext := Ext(p)
	if ext == "" {
		return nil
	}

	var out []Validator
	for _, v := range r.validators {
		if slices.ContainsFunc(v.SupportedExtensions(), func(e string) bool {
			return strings.EqualFold(e, ext)
		}) {
			out = append(out, v)
		}
	}
	return out
}

// Supports reports whether any validator handles p.
func (r *Registry) Supports(p string) bool {
	return len(r.For(p)) > 0
}

// Validate runs every validator matching p against content and returns the
// concatenated findings in registration order.
func (r *Registry) Validate(p, content string) []Finding {
	var out []Finding
	for _, v := range r.For(p) {
		out = append(out, v.Validate(content)...)
	}
	return out
}

// Ext returns the lower-cased extension of a path or content URL.
func Ext(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Ext(p))
}
