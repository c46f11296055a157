package variable

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralMatchesFromStart(t *testing.T) {
	id := MustLiteral("A")

	assert.True(t, id.Matches("A"))
	assert.True(t, id.Matches("AB"), "literal matching is anchored at the start only")
	assert.False(t, id.Matches("BA"))
	assert.True(t, id.IsLiteral())
	assert.Equal(t, "A", id.Text())
}

func TestPatternCaptures(t *testing.T) {
	id := MustPattern(`(.+)\.lines`)

	require.True(t, id.Matches("sample.lines"))
	groups, ok := id.Captures("sample.lines")
	require.True(t, ok)
	assert.Equal(t, []string{"sample"}, groups)

	_, ok = id.Captures("lines")
	assert.False(t, ok)
	assert.False(t, id.IsLiteral())
}

func TestCapturesOptionalGroup(t *testing.T) {
	id := MustPattern(`(a)?(b)`)

	groups, ok := id.Captures("b")
	require.True(t, ok)
	assert.Equal(t, []string{"", "b"}, groups)
}

func TestFromRegexpUnanchored(t *testing.T) {
	id := FromRegexp(regexp.MustCompile(`x(\d)`))

	assert.True(t, id.Matches("x1"))
	assert.False(t, id.Matches("ax1"), "a match that does not begin at the start is rejected")
	groups, ok := id.Captures("x7y")
	require.True(t, ok)
	assert.Equal(t, []string{"7"}, groups)
}

func TestIdentifierEquality(t *testing.T) {
	re := regexp.MustCompile(`(.+)`)
	p1 := FromRegexp(re)
	p2 := FromRegexp(re)
	p3 := MustPattern(`(.+)`)

	assert.True(t, MustLiteral("A").Equal(MustLiteral("A")))
	assert.False(t, MustLiteral("A").Equal(MustLiteral("B")))
	assert.True(t, p1.Equal(p2), "same compiled expression")
	assert.False(t, p1.Equal(p3), "equal text, different compiled expression")
	assert.False(t, MustLiteral("(.+)").Equal(p3), "variants never compare equal")
}

func TestZeroIdentifierMatchesNothing(t *testing.T) {
	var id Identifier
	assert.False(t, id.Matches(""))
	_, ok := id.Captures("a")
	assert.False(t, ok)
}

func TestIgnoreCase(t *testing.T) {
	t.Cleanup(func() { SetIgnoreCase(false) })

	SetIgnoreCase(true)
	id := MustLiteral("name")
	assert.True(t, id.Matches("NAME"))

	SetIgnoreCase(false)
	assert.True(t, id.Matches("NAME"), "the flag is read when the identifier is compiled")
	assert.False(t, MustLiteral("name").Matches("NAME"))
}

func TestInvalidExpression(t *testing.T) {
	_, err := NewPattern("(")
	assert.Error(t, err)
	_, err = NewLiteral("[")
	assert.Error(t, err)
}
