package flags

import "strings"

// Delimiter separates base name, flag tokens and extension inside an entry name.
const Delimiter = "."

// Name is an entry name split into its parts.
//
// For files the first token is the base name, the last token is the extension
// and everything between are flags. Directories have no extension, so every
// token after the base name is a flag.
type Name struct {
	Base  string
	Flags []string
	Ext   string
	Dir   bool
}

// SplitName splits an entry name according to the flag convention.
func SplitName(name string, isDir bool) Name {
	parts := strings.Split(name, Delimiter)
	n := Name{Base: parts[0], Dir: isDir}
	rest := parts[1:]
	if !isDir && len(rest) > 0 {
		n.Ext = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}
	if len(rest) > 0 {
		n.Flags = append([]string(nil), rest...)
	}
	return n
}

// String reassembles the full entry name, flags included.
func (n Name) String() string {
	var b strings.Builder
	b.WriteString(n.Base)
	for _, f := range n.Flags {
		b.WriteString(Delimiter)
		b.WriteString(f)
	}
	if !n.Dir && n.Ext != "" {
		b.WriteString(Delimiter)
		b.WriteString(n.Ext)
	}
	return b.String()
}

// Output is the name without flags, as written to the output bundle.
func (n Name) Output() string {
	if n.Dir || n.Ext == "" {
		return n.Base
	}
	return n.Base + Delimiter + n.Ext
}

// WithFlags returns a copy of n carrying flags instead of its own.
func (n Name) WithFlags(flags []string) Name {
	n.Flags = append([]string(nil), flags...)
	return n
}

// WithExt returns a copy of n with the extension replaced.
func (n Name) WithExt(ext string) Name {
	n.Ext = ext
	return n
}
