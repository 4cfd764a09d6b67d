// Package linter reports flag problems in entry names without running any
// task, so mistakes surface before a conversion silently copies a file
// unchanged.
package linter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentic-research/respack/internal/flags"
	"github.com/agentic-research/respack/internal/resource"
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

type Diagnostic struct {
	Path     string
	Token    string
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	if d.Token == "" {
		return fmt.Sprintf("%s: %s: %s", d.Path, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %q: %s", d.Path, d.Severity, d.Token, d.Message)
}

var fontExts = []string{"ttf", "otf"}

// LintName checks a single entry name.
func LintName(path string, isDir bool) []Diagnostic {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	name := flags.SplitName(base, isDir)

	var diags []Diagnostic
	report := func(sev Severity, token, format string, args ...any) {
		diags = append(diags, Diagnostic{Path: path, Token: token, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	for _, token := range name.Flags {
		shapes := matching(token)
		if len(shapes) == 0 {
			report(Warning, token, "unknown flag")
			continue
		}
		for _, s := range shapes {
			if err := s.Check(token); err != nil {
				report(Error, token, "invalid %s value: %v", s.Name(), err)
			}
		}
	}

	ranges, _ := flags.CodeRange.All(name.Flags)
	for _, r := range ranges {
		if r.Empty() {
			report(Warning, fmt.Sprintf("%d-%d", r.Start, r.End), "empty code point range")
		}
	}

	if !isDir {
		for _, kw := range []*flags.Matcher[string]{flags.Pack, flags.Flatten} {
			if word, ok, _ := kw.First(name.Flags); ok {
				report(Warning, word, "only applies to directories")
			}
		}
	}

	if !isDir && isFont(name.Ext) {
		size, ok, err := flags.Size.First(name.Flags)
		switch {
		case err != nil:
		case !ok:
			report(Warning, "", "font has no size flag and will be copied unchanged")
		case size <= 0:
			report(Error, fmt.Sprint(size), "font size must be positive")
		}
	}
	return diags
}

// Lint checks every live entry of tree, sorted by path.
func Lint(tree *resource.Tree) []Diagnostic {
	var diags []Diagnostic
	_ = tree.Walk(func(n *resource.Node) error {
		if n.Parent() == nil {
			return nil
		}
		diags = append(diags, LintName(n.Path(), n.IsDir())...)
		return nil
	})
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Path < diags[j].Path })
	return diags
}

// Errors counts diagnostics of severity Error.
func Errors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

func matching(token string) []flags.Shape {
	var out []flags.Shape
	for _, s := range flags.Shapes {
		if s.Matches(token) {
			out = append(out, s)
		}
	}
	return out
}

func isFont(ext string) bool {
	for _, e := range fontExts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
