package executor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/frametasks/internal/binder"
	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/task"
	"github.com/specialistvlad/frametasks/internal/variable"
)

func logContext(buf *bytes.Buffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// derive returns a function producing one column computed from the first
// column of argument x.
func derive(name string, fn func(string) string) task.Func {
	return func(_ context.Context, call *task.Call) ([]frame.Table, error) {
		x := call.Args["x"]
		src, _ := x.Column(x.Columns()[0])
		vals := make([]cty.Value, len(src))
		for i, v := range src {
			s, _ := frame.AsString(v)
			vals[i] = cty.StringVal(fn(s))
		}
		out := name
		if out == "" {
			out = call.Expected(0)
		}
		return []frame.Table{frame.MustNew(x.Keys(), frame.Column{Name: out, Values: vals})}, nil
	}
}

func TestExecuteReturnsInputColumnsWithResult(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("task1").Require("x", "A", "B").Makes(task.NoGroup, true, "C").End(
		func(_ context.Context, call *task.Call) ([]frame.Table, error) {
			x := call.Args["x"]
			assert.Equal(t, []string{"A", "B"}, x.Columns())
			c := frame.MustNew(x.Keys(), frame.Strings("C", "ac", "bd"))
			return []frame.Table{x.Join(c)}, nil
		})
	require.NoError(t, err)

	input := frame.MustNew(nil, frame.Strings("A", "a", "b"), frame.Strings("B", "c", "d"))
	out, plan, err := New(r, planner.DefaultOptions()).Execute(context.Background(), []frame.Table{input}, [][]string{{"C"}})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Len(t, out, 2)
	assert.Same(t, input, out[0])
	assert.Equal(t, []string{"A", "B", "C"}, out[1].Columns())
}

func TestAppendsCarriesSourceColumns(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("derive_d").Require("x", "A").Makes(task.NoGroup, true, "D").End(derive("D", strings.ToUpper))
	require.NoError(t, err)

	input := frame.MustNew([]int64{10, 20},
		frame.Strings("A", "a", "b"),
		frame.Strings("B", "b1", "b2"),
		frame.Strings("C", "c1", "c2"),
	)
	var buf bytes.Buffer
	out, _, err := New(r, planner.DefaultOptions()).Execute(logContext(&buf), []frame.Table{input}, [][]string{{"D"}})
	require.NoError(t, err)
	require.Len(t, out, 2)

	result := out[1]
	assert.Equal(t, []string{"D", "A", "B", "C"}, result.Columns(), "consumed columns are carried too")
	assert.Equal(t, []int64{10, 20}, result.Keys())
	b, _ := result.Column("B")
	assert.Equal(t, []cty.Value{cty.StringVal("b1"), cty.StringVal("b2")}, b)
	d, _ := result.Column("D")
	assert.Equal(t, []cty.Value{cty.StringVal("A"), cty.StringVal("B")}, d)
	assert.NotContains(t, buf.String(), "missing planned columns")
	assert.Contains(t, buf.String(), "run_id=")
}

func TestAppendsConsumedColumnFeedsLaterStep(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("d").Require("x", "A").Makes(task.NoGroup, true, "D").End(derive("D", strings.ToUpper))
	require.NoError(t, err)

	var seen []string
	var seenA []cty.Value
	_, err = r.BeginTask("e").Require("x", "A", "D").Makes(task.NoGroup, false, "E").End(
		func(ctx context.Context, call *task.Call) ([]frame.Table, error) {
			x := call.Args["x"]
			seen = x.Columns()
			seenA, _ = x.Column("A")
			return derive("E", strings.ToLower)(ctx, call)
		})
	require.NoError(t, err)

	input := frame.MustNew(nil, frame.Strings("A", "a1", "a2"), frame.Strings("B", "b1", "b2"))
	var buf bytes.Buffer
	out, plan, err := New(r, planner.DefaultOptions()).Execute(logContext(&buf), []frame.Table{input}, [][]string{{"E"}})
	require.NoError(t, err)
	require.Equal(t, []string{"d", "e"}, []string{plan[0].Task, plan[1].Task})
	src, _ := plan[1].Binding.Source("x")
	require.Equal(t, 1, src, "e reads A from the table d appended")

	assert.Equal(t, []string{"A", "D"}, seen)
	assert.Equal(t, []cty.Value{cty.StringVal("a1"), cty.StringVal("a2")}, seenA)
	assert.ElementsMatch(t, plan[0].NewGroups()[0], out[1].Columns(), "the executed table matches the planned group")
	assert.NotContains(t, buf.String(), "missing bound columns")
	assert.NotContains(t, buf.String(), "missing planned columns")
}

func TestPerformWarnsOnMissingPlannedColumns(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("d").Require("x", "A").Makes(task.NoGroup, true, "D").End(derive("D", strings.ToUpper))
	require.NoError(t, err)

	actions := planner.NextActions(r, planner.NewState([][]string{{"A", "B"}}), planner.DefaultOptions())
	require.Len(t, actions, 1)

	var buf bytes.Buffer
	input := frame.MustNew(nil, frame.Strings("A", "a"))
	_, err = New(r, planner.DefaultOptions()).Perform(logContext(&buf), []frame.Table{input}, actions)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "missing planned columns")
	assert.Contains(t, buf.String(), "missing=[B]")
}

func TestExecuteUnreachableGoal(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("upper").RequirePattern("x", `(.+)`).Makes(task.NoGroup, true, "{x}.upper").End(derive("", strings.ToUpper))
	require.NoError(t, err)

	input := frame.MustNew(nil, frame.Strings("A", "a"))
	_, _, err = New(r, planner.DefaultOptions()).Execute(context.Background(), []frame.Table{input}, [][]string{{"never"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, planner.ErrNoPlan))
}

func TestExecuteFunctionNotBound(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("planned_only").Require("x", "A").Makes(task.NoGroup, false, "B").End(nil)
	require.NoError(t, err)

	input := frame.MustNew(nil, frame.Strings("A", "a"))
	_, plan, err := New(r, planner.DefaultOptions()).Execute(context.Background(), []frame.Table{input}, [][]string{{"B"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFunctionNotBound))
	assert.Len(t, plan, 1, "the plan is returned even when it cannot run")
}

func TestPassExtra(t *testing.T) {
	r := registry.New()
	var got *task.Call
	_, err := r.BeginTask("tokens").RequirePattern("x", `(.+)\.lines`).Makes(task.NoGroup, false, "{x}.tokens").End(
		func(ctx context.Context, call *task.Call) ([]frame.Table, error) {
			got = call
			return derive("", strings.ToLower)(ctx, call)
		})
	require.NoError(t, err)
	_, err = r.BeginTask("plain").Require("x", "sample.tokens").Makes(task.NoGroup, false, "done").PassExtra(false).End(
		func(ctx context.Context, call *task.Call) ([]frame.Table, error) {
			assert.Nil(t, call.Requires)
			assert.Nil(t, call.Expects)
			return derive("done", strings.ToUpper)(ctx, call)
		})
	require.NoError(t, err)

	input := frame.MustNew(nil, frame.Strings("sample.lines", "One Two"))
	out, plan, err := New(r, planner.DefaultOptions()).Execute(context.Background(), []frame.Table{input}, [][]string{{"done"}})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	require.Len(t, out, 3)

	require.NotNil(t, got)
	assert.Equal(t, map[task.RequireKey]string{{Arg: "x", Ident: `(.+)\.lines`}: "sample.lines"}, got.Requires)
	assert.Equal(t, "sample.tokens", got.Expected(0))

	tokens, ok := out[1].Column("sample.tokens")
	require.True(t, ok)
	assert.Equal(t, []cty.Value{cty.StringVal("one two")}, tokens)
}

func TestGroupedResults(t *testing.T) {
	split := func(n int) task.Func {
		return func(_ context.Context, call *task.Call) ([]frame.Table, error) {
			x := call.Args["x"]
			tables := []frame.Table{
				frame.MustNew(x.Keys(), frame.Strings("L", "l")),
				frame.MustNew(x.Keys(), frame.Strings("R", "r")),
			}
			return tables[:n], nil
		}
	}

	t.Run("all groups returned", func(t *testing.T) {
		r := registry.New()
		_, err := r.BeginTask("split").Require("x", "A").Makes(0, false, "L").Makes(1, false, "R").End(split(2))
		require.NoError(t, err)

		input := frame.MustNew(nil, frame.Strings("A", "a"))
		out, _, err := New(r, planner.DefaultOptions()).Execute(context.Background(), []frame.Table{input}, [][]string{{"R"}})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, []string{"L"}, out[1].Columns())
		assert.Equal(t, []string{"R"}, out[2].Columns())
	})

	t.Run("fewer tables than groups", func(t *testing.T) {
		r := registry.New()
		_, err := r.BeginTask("split").Require("x", "A").Makes(0, false, "L").Makes(1, false, "R").End(split(1))
		require.NoError(t, err)

		var buf bytes.Buffer
		input := frame.MustNew(nil, frame.Strings("A", "a"))
		out, _, err := New(r, planner.DefaultOptions()).Execute(logContext(&buf), []frame.Table{input}, [][]string{{"R"}})
		require.NoError(t, err)
		require.Len(t, out, 3, "placeholder keeps table indices aligned")
		assert.Empty(t, out[2].Columns())
		assert.Contains(t, buf.String(), "fewer tables than declared groups")
	})
}

func TestSingleTableExpected(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("two").Require("x", "A").Makes(task.NoGroup, false, "B").End(
		func(_ context.Context, call *task.Call) ([]frame.Table, error) {
			return []frame.Table{frame.Empty(), frame.Empty()}, nil
		})
	require.NoError(t, err)

	input := frame.MustNew(nil, frame.Strings("A", "a"))
	_, _, err = New(r, planner.DefaultOptions()).Execute(context.Background(), []frame.Table{input}, [][]string{{"B"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a single table, got 2")
}

func TestTaskErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := registry.New()
	_, err := r.BeginTask("fail").Require("x", "A").Makes(task.NoGroup, false, "B").End(
		func(context.Context, *task.Call) ([]frame.Table, error) { return nil, boom })
	require.NoError(t, err)

	input := frame.MustNew(nil, frame.Strings("A", "a"))
	_, _, err = New(r, planner.DefaultOptions()).Execute(context.Background(), []frame.Table{input}, [][]string{{"B"}})
	assert.ErrorIs(t, err, boom)
}

func TestPerformWarnsOnMissingInputColumns(t *testing.T) {
	r := registry.New()
	var seen []string
	_, err := r.BeginTask("task1").Require("x", "A", "B").Makes(task.NoGroup, false, "C").End(
		func(_ context.Context, call *task.Call) ([]frame.Table, error) {
			seen = call.Args["x"].Columns()
			return []frame.Table{frame.MustNew(call.Args["x"].Keys(), frame.Strings("C", "c"))}, nil
		})
	require.NoError(t, err)

	actions := planner.NextActions(r, planner.NewState([][]string{{"A", "B"}}), planner.DefaultOptions())
	require.Len(t, actions, 1)

	var buf bytes.Buffer
	input := frame.MustNew(nil, frame.Strings("A", "a"))
	out, err := New(r, planner.DefaultOptions()).Perform(logContext(&buf), []frame.Table{input}, actions)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []string{"A"}, seen)
	assert.Contains(t, buf.String(), "missing bound columns")
}

func TestPerformRejectsMultiSourceAppends(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("join").Require("x", "A", "B").Makes(task.NoGroup, true, "C").End(derive("C", strings.ToUpper))
	require.NoError(t, err)

	action := planner.Action{
		Task: "join",
		Binding: binder.Binding{
			{Key: binder.Key{Source: 0, Variable: "A"}, Arg: "x", Ident: variable.MustLiteral("A")},
			{Key: binder.Key{Source: 1, Variable: "B"}, Arg: "x", Ident: variable.MustLiteral("B")},
		},
		Outputs: []task.Output{{Group: task.NoGroup, Variable: "C"}},
	}
	tables := []frame.Table{
		frame.MustNew(nil, frame.Strings("A", "a")),
		frame.MustNew(nil, frame.Strings("B", "b")),
	}
	_, err = New(r, planner.DefaultOptions()).Perform(context.Background(), tables, []planner.Action{action})
	assert.ErrorIs(t, err, task.ErrAppendContract)
}

func TestPerformUnknownTaskAndBadSource(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("t").Require("x", "A").Makes(task.NoGroup, false, "B").End(derive("B", strings.ToUpper))
	require.NoError(t, err)
	ex := New(r, planner.DefaultOptions())

	_, err = ex.Perform(context.Background(), nil, []planner.Action{{Task: "missing"}})
	assert.ErrorIs(t, err, registry.ErrUnknownTask)

	bad := planner.Action{
		Task:    "t",
		Binding: binder.Binding{{Key: binder.Key{Source: 3, Variable: "A"}, Arg: "x", Ident: variable.MustLiteral("A")}},
		Outputs: []task.Output{{Group: task.NoGroup, Variable: "B"}},
	}
	_, err = ex.Perform(context.Background(), []frame.Table{frame.Empty()}, []planner.Action{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refers to table 3")
}

func TestPerformLeavesInputUntouched(t *testing.T) {
	r := registry.New()
	_, err := r.BeginTask("t").Require("x", "A").Makes(task.NoGroup, false, "B").End(derive("B", strings.ToUpper))
	require.NoError(t, err)

	tables := make([]frame.Table, 1, 4)
	tables[0] = frame.MustNew(nil, frame.Strings("A", "a"))
	ex := New(r, planner.DefaultOptions())
	plan, err := ex.Plan(context.Background(), tables, [][]string{{"B"}})
	require.NoError(t, err)

	out, err := ex.Perform(context.Background(), tables, plan)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, tables, 1)
	assert.Nil(t, tables[:2][1], "the caller's backing array is not written")
	assert.Equal(t, [][]string{{"A"}, {"B"}}, Columns(out))
}
