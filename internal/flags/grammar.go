package flags

import (
	"errors"
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

// Shape is the untyped view of a Matcher, used to classify tokens.
type Shape interface {
	Name() string
	Matches(token string) bool
	// Check returns the parse error of a conforming token, or nil.
	Check(token string) error
}

// Matcher recognizes one flag shape and parses it into a T.
// The pattern must cover the entire token.
type Matcher[T any] struct {
	name  string
	re    *regexp.Regexp
	parse func(groups []string) (T, error)
}

func newMatcher[T any](name, pattern string, parse func(groups []string) (T, error)) *Matcher[T] {
	return &Matcher[T]{
		name:  name,
		re:    regexp.MustCompile("^(?:" + pattern + ")$"),
		parse: parse,
	}
}

// Name returns the shape identifier.
func (m *Matcher[T]) Name() string { return m.name }

// Matches reports whether token conforms to the shape, valid value or not.
func (m *Matcher[T]) Matches(token string) bool {
	return m.re.MatchString(token)
}

// Check reports the value error of a token that conforms to the shape.
func (m *Matcher[T]) Check(token string) error {
	_, _, err := m.Match(token)
	return err
}

// Match parses token. matched is false when the token does not conform to the
// shape. err is set when it conforms but carries an invalid value.
func (m *Matcher[T]) Match(token string) (value T, matched bool, err error) {
	groups := m.re.FindStringSubmatch(token)
	if groups == nil {
		return value, false, nil
	}
	value, err = m.parse(groups[1:])
	if err != nil {
		var zero T
		return zero, true, fmt.Errorf("flag %q: %w", token, err)
	}
	return value, true, nil
}

// First returns the first token in flags matching the shape.
func (m *Matcher[T]) First(flags []string) (T, bool, error) {
	for _, token := range flags {
		if v, ok, err := m.Match(token); ok {
			return v, true, err
		}
	}
	var zero T
	return zero, false, nil
}

// Last keeps scanning and returns the last token matching the shape.
func (m *Matcher[T]) Last(flags []string) (T, bool, error) {
	var (
		last  T
		found bool
		err   error
	)
	for _, token := range flags {
		if v, ok, e := m.Match(token); ok {
			last, found, err = v, true, e
		}
	}
	return last, found, err
}

// All returns every valid match in declaration order together with the
// errors of matching tokens that carried invalid values.
func (m *Matcher[T]) All(flags []string) ([]T, error) {
	var (
		out  []T
		errs []error
	)
	for _, token := range flags {
		v, ok, err := m.Match(token)
		if !ok {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, v)
	}
	return out, errors.Join(errs...)
}

// Range is an inclusive integer interval.
type Range struct {
	Start, End int
}

// Empty reports a range whose start exceeds its end.
func (r Range) Empty() bool { return r.Start > r.End }

// Outline configures a glyph outline.
type Outline struct {
	Width    int
	Color    color.NRGBA
	Straight bool // mitered joins; rounded when false
}

// Dimensions is an explicit width and height.
type Dimensions struct {
	Width, Height int
}

const hexGroup = `([0-9A-Fa-f]{3,8})`

// Size matches "<digits>", e.g. "14". Zero is returned as-is; consumers
// decide whether it is valid.
var Size = newMatcher("size", `(\d+)`, func(g []string) (int, error) {
	return strconv.Atoi(g[0])
})

// MaxCodePoint is the largest Unicode code point.
const MaxCodePoint = 0x10FFFF

// CodeRange matches "<start>-<end>", e.g. "65-90". Bounds above MaxCodePoint
// are value errors.
var CodeRange = newMatcher("range", `(\d+)-(\d+)`, func(g []string) (Range, error) {
	start, err := strconv.Atoi(g[0])
	if err != nil {
		return Range{}, err
	}
	end, err := strconv.Atoi(g[1])
	if err != nil {
		return Range{}, err
	}
	if start > MaxCodePoint || end > MaxCodePoint {
		return Range{}, fmt.Errorf("code point out of range, max %d", MaxCodePoint)
	}
	return Range{Start: start, End: end}, nil
})

// PrefixedColor returns a matcher for "<prefix>#<hex>" colors.
func PrefixedColor(prefix string) *Matcher[color.NRGBA] {
	return newMatcher(prefix+"-color", regexp.QuoteMeta(prefix)+"#"+hexGroup, func(g []string) (color.NRGBA, error) {
		return ParseHexColor(g[0])
	})
}

// Background matches "bg#RRGGBBAA". Fonts resolve it with Last: the last
// declared background wins. This differs from Foreground and OutlineSpec, which
// are resolved with First; existing asset trees depend on both behaviours.
var Background = PrefixedColor("bg")

// Foreground matches "fg#RRGGBBAA"; resolved first-match-wins.
var Foreground = PrefixedColor("fg")

// OutlineSpec matches "outline <width> <hex> [join]".
var OutlineSpec = newMatcher("outline", `outline\s+(\d+)\s+`+hexGroup+`(?:\s+(\w+))?`, func(g []string) (Outline, error) {
	width, err := strconv.Atoi(g[0])
	if err != nil {
		return Outline{}, err
	}
	c, err := ParseHexColor(g[1])
	if err != nil {
		return Outline{}, err
	}
	return Outline{
		Width:    width,
		Color:    c,
		Straight: strings.EqualFold(g[2], "straight"),
	}, nil
})

// Dims matches "<width>x<height>", e.g. "128x64".
var Dims = newMatcher("dimensions", `(\d+)x(\d+)`, func(g []string) (Dimensions, error) {
	w, err := strconv.Atoi(g[0])
	if err != nil {
		return Dimensions{}, err
	}
	h, err := strconv.Atoi(g[1])
	if err != nil {
		return Dimensions{}, err
	}
	return Dimensions{Width: w, Height: h}, nil
})

// Width matches "w<digits>".
var Width = newMatcher("width", `w(\d+)`, func(g []string) (int, error) {
	return strconv.Atoi(g[0])
})

// Height matches "h<digits>".
var Height = newMatcher("height", `h(\d+)`, func(g []string) (int, error) {
	return strconv.Atoi(g[0])
})

// Keyword returns a matcher for one exact word.
func Keyword(word string) *Matcher[string] {
	return newMatcher("keyword:"+word, regexp.QuoteMeta(word), func([]string) (string, error) {
		return word, nil
	})
}

var (
	Ignore  = Keyword("ignore")
	Flatten = Keyword("flatten")
	Pack    = Keyword("pack")
)

// Shapes is the registry of every recognized shape.
var Shapes = []Shape{
	Size, CodeRange, Background, Foreground, OutlineSpec, Dims, Width, Height,
	Ignore, Flatten, Pack,
}

// Classify returns the names of all shapes token conforms to.
func Classify(token string) []string {
	var names []string
	for _, s := range Shapes {
		if s.Matches(token) {
			names = append(names, s.Name())
		}
	}
	return names
}

// Has reports whether any token in flags matches the shape.
func Has(s Shape, flags []string) bool {
	for _, token := range flags {
		if s.Matches(token) {
			return true
		}
	}
	return false
}
