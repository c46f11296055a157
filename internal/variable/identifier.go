// Package variable implements the identifiers tasks use to name the columns
// ("variables") they consume, and the back-reference templates from which
// the names of produced columns are derived.
//
// An Identifier is a two-variant value: a Literal built from plain text, or a
// Pattern built from a regular expression. Both variants match a column name
// from its start, the way a prefix-anchored regular expression does.
package variable

import (
	"fmt"
	"regexp"
	"sync/atomic"
)

// ignoreCase is the single process-wide case-sensitivity knob. It only affects
// identifiers compiled from text after it is set.
var ignoreCase atomic.Bool

// SetIgnoreCase switches case-insensitive matching on or off for identifiers
// built from text. Call it once, before any task is registered.
func SetIgnoreCase(v bool) {
	ignoreCase.Store(v)
}

// IgnoreCase reports the current case-sensitivity setting.
func IgnoreCase() bool {
	return ignoreCase.Load()
}

// Kind distinguishes the two identifier variants.
type Kind int

const (
	// Literal identifiers are built from requirement text.
	Literal Kind = iota
	// Pattern identifiers are built from regular expressions and make a task generic.
	Pattern
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Pattern:
		return "pattern"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Identifier matches variable names. The zero value matches nothing.
type Identifier struct {
	kind    Kind
	text    string
	matcher *regexp.Regexp
}

// NewLiteral compiles text into a Literal identifier. The text is used as a
// regular expression anchored at the start of the name.
func NewLiteral(text string) (Identifier, error) {
	re, err := compileAnchored(text)
	if err != nil {
		return Identifier{}, fmt.Errorf("invalid literal identifier %q: %w", text, err)
	}
	return Identifier{kind: Literal, text: text, matcher: re}, nil
}

// NewPattern compiles expr into a Pattern identifier.
func NewPattern(expr string) (Identifier, error) {
	re, err := compileAnchored(expr)
	if err != nil {
		return Identifier{}, fmt.Errorf("invalid pattern identifier %q: %w", expr, err)
	}
	return Identifier{kind: Pattern, text: expr, matcher: re}, nil
}

// FromRegexp wraps a pre-compiled expression as a Pattern identifier. The
// expression keeps its own flags; the process-wide case setting is not applied.
func FromRegexp(re *regexp.Regexp) Identifier {
	return Identifier{kind: Pattern, text: re.String(), matcher: re}
}

// Compile builds an identifier of the given kind from text.
func Compile(kind Kind, text string) (Identifier, error) {
	if kind == Pattern {
		return NewPattern(text)
	}
	return NewLiteral(text)
}

// MustLiteral is like NewLiteral but panics on an invalid expression.
func MustLiteral(text string) Identifier {
	id, err := NewLiteral(text)
	if err != nil {
		panic(err)
	}
	return id
}

// MustPattern is like NewPattern but panics on an invalid expression.
func MustPattern(expr string) Identifier {
	id, err := NewPattern(expr)
	if err != nil {
		panic(err)
	}
	return id
}

func compileAnchored(expr string) (*regexp.Regexp, error) {
	prefix := `\A(?:`
	if ignoreCase.Load() {
		prefix = `(?i)` + prefix
	}
	return regexp.Compile(prefix + expr + `)`)
}

// Kind returns the identifier variant.
func (id Identifier) Kind() Kind { return id.kind }

// IsLiteral reports whether the identifier was built from literal text.
func (id Identifier) IsLiteral() bool { return id.kind == Literal }

// Text returns the text the identifier was built from.
func (id Identifier) Text() string { return id.text }

func (id Identifier) String() string { return id.text }

// Matches reports whether the identifier matches name from its start.
func (id Identifier) Matches(name string) bool {
	if id.matcher == nil {
		return false
	}
	loc := id.matcher.FindStringIndex(name)
	return loc != nil && loc[0] == 0
}

// Captures returns the capture groups of the match against name, excluding
// the whole match. Groups that did not participate are empty strings.
func (id Identifier) Captures(name string) ([]string, bool) {
	if id.matcher == nil {
		return nil, false
	}
	sub := id.matcher.FindStringSubmatchIndex(name)
	if sub == nil || sub[0] != 0 {
		return nil, false
	}
	groups := make([]string, 0, len(sub)/2-1)
	for i := 2; i+1 < len(sub); i += 2 {
		if sub[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, name[sub[i]:sub[i+1]])
	}
	return groups, true
}

// Equal compares two identifiers. Literals are equal when their text is;
// patterns only when they share the same compiled expression.
func (id Identifier) Equal(other Identifier) bool {
	if id.kind != other.kind {
		return false
	}
	if id.kind == Literal {
		return id.text == other.text
	}
	return id.matcher != nil && id.matcher == other.matcher
}
