package variable

import (
	"regexp"
	"strconv"
)

// referenceToken matches {arg}, {arg.N} and {arg.N.M}. Argument names must
// not start with a digit so regular expression quantifiers such as {2} are
// left alone.
var referenceToken = regexp.MustCompile(`\{([A-Za-z_]\w*)(?:\.(\d+))?(?:\.(\d+))?\}`)

// Reference is one back-reference token: the Index-th requirement bound to
// Arg, and the Group-th capture group of its identifier against the bound name.
type Reference struct {
	Arg   string
	Index int
	Group int
}

// HasReference reports whether text contains at least one back-reference token.
func HasReference(text string) bool {
	return referenceToken.MatchString(text)
}

// References lists the tokens in text, in order of appearance.
func References(text string) []Reference {
	matches := referenceToken.FindAllStringSubmatch(text, -1)
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, parseReference(m))
	}
	return refs
}

func parseReference(m []string) Reference {
	ref := Reference{Arg: m[1]}
	if m[2] != "" {
		ref.Index, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		ref.Group, _ = strconv.Atoi(m[3])
	}
	return ref
}

// Lookup resolves one reference to its substitution value.
type Lookup func(ref Reference) (string, bool)

// Resolve substitutes every token in text using lookup. Substituted values are
// passed through escape when it is non-nil. It reports false as soon as one
// reference cannot be resolved.
func Resolve(text string, lookup Lookup, escape func(string) string) (string, bool) {
	ok := true
	out := referenceToken.ReplaceAllStringFunc(text, func(token string) string {
		if !ok {
			return token
		}
		value, found := lookup(parseReference(referenceToken.FindStringSubmatch(token)))
		if !found {
			ok = false
			return token
		}
		if escape != nil {
			return escape(value)
		}
		return value
	})
	if !ok {
		return "", false
	}
	return out, true
}
