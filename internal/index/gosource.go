package index

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"strconv"
	"strings"
	"unicode"

	"mvdan.cc/gofumpt/format"

	"github.com/agentic-research/respack/api"
)

// GoSource renders a Go file declaring one string constant per file asset,
// holding its bundle path, and an All slice listing them in order.
func GoSource(pkg string, assets []api.Asset) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("go package %q is not an identifier", pkg)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by respack. DO NOT EDIT.\n\npackage %s\n\n", pkg)

	used := map[string]int{}
	var names []string
	b.WriteString("const (\n")
	for _, a := range assets {
		if a.Dir {
			continue
		}
		name := Identifier(a.Path)
		used[name]++
		if n := used[name]; n > 1 {
			name += strconv.Itoa(n)
		}
		names = append(names, name)
		fmt.Fprintf(&b, "%s = %q\n", name, a.Path)
	}
	b.WriteString(")\n\n")

	b.WriteString("// All lists every asset path.\nvar All = []string{\n")
	for _, n := range names {
		fmt.Fprintf(&b, "%s,\n", n)
	}
	b.WriteString("}\n")

	out, err := format.Source(b.Bytes(), format.Options{})
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return out, nil
}

// WriteGoFile writes GoSource to path.
func WriteGoFile(path, pkg string, assets []api.Asset) error {
	src, err := GoSource(pkg, assets)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Identifier turns an asset path into an exported Go identifier:
// "fonts/body.fnt" becomes "FontsBodyFnt".
func Identifier(path string) string {
	var b strings.Builder
	upper := true
	for _, r := range path {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" || !unicode.IsLetter([]rune(id)[0]) {
		id = "Asset" + id
	}
	return id
}
