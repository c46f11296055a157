package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/frametasks/internal/frame"
)

// taggedTable is a Table whose dynamic type cannot be compared with ==.
type taggedTable struct {
	*frame.Frame
	tags []string
}

func TestGoalTablesPicksLatestMatch(t *testing.T) {
	tables := []frame.Table{
		taggedTable{Frame: frame.MustNew(nil, frame.Strings("A", "a")), tags: []string{"input"}},
		taggedTable{Frame: frame.MustNew(nil, frame.Strings("A", "a"), frame.Strings("B", "b")), tags: []string{"first"}},
		taggedTable{Frame: frame.MustNew(nil, frame.Strings("B", "b2"), frame.Strings("C", "c")), tags: []string{"second"}},
	}

	var picked []frame.Table
	require.NotPanics(t, func() {
		picked = goalTables(context.Background(), tables, [][]string{{"B"}, {"C"}, {"A"}})
	})
	require.Len(t, picked, 2, "B and C share the latest table")
	assert.Equal(t, []string{"second"}, picked[0].(taggedTable).tags)
	assert.Equal(t, []string{"first"}, picked[1].(taggedTable).tags)
}

func TestGoalTablesWithoutGoal(t *testing.T) {
	tables := []frame.Table{
		frame.MustNew(nil, frame.Strings("A", "a")),
		frame.MustNew(nil, frame.Strings("B", "b")),
	}
	assert.Equal(t, tables[1:], goalTables(context.Background(), tables, nil))
	assert.Empty(t, goalTables(context.Background(), tables, [][]string{{"Z"}}))
	assert.Nil(t, goalTables(context.Background(), nil, [][]string{{"A"}}))
}
