package executor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/frametasks/internal/binder"
	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/task"
)

// perform runs one action and returns the tables it adds, one per
// destination group in order of first appearance.
func (e *Executor) perform(ctx context.Context, available []frame.Table, a planner.Action) ([]frame.Table, error) {
	logger := ctxlog.FromContext(ctx)

	spec, err := e.lookup(a.Task)
	if err != nil {
		return nil, err
	}

	sources := a.Binding.Sources()
	for _, src := range sources {
		if src < 0 || src >= len(available) {
			return nil, fmt.Errorf("binding %s refers to table %d, only %d available", a.Binding, src, len(available))
		}
	}
	if spec.Appends && len(sources) > 1 {
		return nil, fmt.Errorf("binding %s spans tables %v: %w", a.Binding, sources, task.ErrAppendContract)
	}

	call := &task.Call{
		Task: a.Task,
		Args: arguments(ctx, available, a.Binding),
	}
	if spec.PassExtra {
		call.Requires = requires(a.Binding)
		call.Expects = a.Outputs
	}

	logger.Info("▶️ Running task", "action", a.String())
	results, err := spec.Fn(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("task %q failed: %w", a.Task, err)
	}

	groups, _ := task.GroupOutputs(a.Outputs)
	produced, err := collect(ctx, groups, results)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", a.Task, err)
	}

	// Source columns the result lacks are joined back, consumed ones
	// included, so the table holds every name the planner recorded.
	if spec.Appends && len(sources) == 1 {
		src := available[sources[0]]
		for i := range produced {
			produced[i] = produced[i].Join(src)
		}
	}

	for i, t := range produced {
		var want []string
		for _, o := range a.Outputs {
			if o.Group == groups[i] {
				want = append(want, o.Variable)
			}
		}
		if _, missing := t.Project(want); len(missing) > 0 {
			logger.Warn("Task result is missing planned columns.", "group", groups[i], "missing", missing)
		}
	}

	logger.Info("✅ Finished task", "tables", len(produced))
	return produced, nil
}

// arguments projects each argument's bound columns, in requirement order,
// out of the table the argument is bound to.
func arguments(ctx context.Context, available []frame.Table, b binder.Binding) map[string]frame.Table {
	logger := ctxlog.FromContext(ctx)

	args := make(map[string]frame.Table)
	for _, arg := range b.Arguments() {
		src, _ := b.Source(arg)
		table, missing := available[src].Project(b.Columns(arg))
		if len(missing) > 0 {
			logger.Warn("Input table is missing bound columns.", "argument", arg, "source", src, "missing", missing)
		}
		args[arg] = table
	}
	return args
}

// requires maps every bound requirement to the variable it matched.
func requires(b binder.Binding) map[task.RequireKey]string {
	m := make(map[task.RequireKey]string, len(b))
	for _, e := range b {
		m[task.RequireKey{Arg: e.Arg, Ident: e.Ident.Text()}] = e.Variable
	}
	return m
}

// collect lines the returned tables up with the destination groups. A task
// without groups returns exactly one table; a task with numbered groups
// returns a list indexed by group number. Missing tables are replaced by
// empty ones so later table indices stay aligned with the plan.
func collect(ctx context.Context, groups []int, results []frame.Table) ([]frame.Table, error) {
	logger := ctxlog.FromContext(ctx)

	if len(groups) == 1 && groups[0] == task.NoGroup {
		switch len(results) {
		case 1:
			if results[0] == nil {
				logger.Warn("Task returned a nil table.")
				return []frame.Table{frame.Empty()}, nil
			}
			return []frame.Table{results[0]}, nil
		case 0:
			logger.Warn("Task returned no table.")
			return []frame.Table{frame.Empty()}, nil
		default:
			return nil, fmt.Errorf("expected a single table, got %d", len(results))
		}
	}

	produced := make([]frame.Table, len(groups))
	for i, g := range groups {
		if g < len(results) && results[g] != nil {
			produced[i] = results[g]
			continue
		}
		logger.Warn("Task returned fewer tables than declared groups.", "group", g, "returned", len(results))
		produced[i] = frame.Empty()
	}
	return produced, nil
}
