// Package executor runs plans against data. It projects each action's bound
// columns out of the available tables, calls the task function, validates
// what comes back and appends the result tables to the running list.
//
// The table list is append-only: earlier tables are never replaced, so the
// index of a table always matches the group index the planner assigned it.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/task"
)

// ErrFunctionNotBound is returned when a planned task has no function, which
// happens for manifest tasks whose handler no module registered.
var ErrFunctionNotBound = errors.New("function not bound")

// Executor plans and performs task invocations over one catalog.
type Executor struct {
	catalog planner.Catalog
	opts    planner.Options
}

// New creates an Executor. The catalog must not change while it is in use.
func New(catalog planner.Catalog, opts planner.Options) *Executor {
	return &Executor{catalog: catalog, opts: opts}
}

// Plan searches for the actions that turn tables into a state satisfying goal.
func (e *Executor) Plan(ctx context.Context, tables []frame.Table, goal [][]string) ([]planner.Action, error) {
	logger := ctxlog.FromContext(ctx)

	plan, err := planner.Search(ctx, e.catalog, Columns(tables), goal, e.opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Plan found.", "actions", len(plan))
	for i, a := range plan {
		logger.Debug("Planned action.", "step", i, "action", a.String())
	}
	return plan, nil
}

// Execute plans for goal and performs the plan. It returns every table, the
// inputs first, together with the plan that produced them.
func (e *Executor) Execute(ctx context.Context, tables []frame.Table, goal [][]string) ([]frame.Table, []planner.Action, error) {
	ctx = ctxlog.With(ctx, "run_id", uuid.NewString())
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting execution.", "tables", len(tables), "goal", fmt.Sprint(goal))

	plan, err := e.Plan(ctx, tables, goal)
	if err != nil {
		return nil, nil, err
	}

	out, err := e.Perform(ctx, tables, plan)
	if err != nil {
		return nil, plan, err
	}
	logger.Info("Execution finished.", "tables", len(out))
	return out, plan, nil
}

// Perform runs a stored list of actions without searching. The input slice is
// not modified.
func (e *Executor) Perform(ctx context.Context, tables []frame.Table, actions []planner.Action) ([]frame.Table, error) {
	available := make([]frame.Table, len(tables), len(tables)+len(actions))
	copy(available, tables)

	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("execution interrupted before step %d: %w", i, err)
		}
		produced, err := e.perform(ctxlog.With(ctx, "step", i, "task", a.Task), available, a)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, a.Task, err)
		}
		available = append(available, produced...)
	}
	return available, nil
}

// Columns returns the column names of each table, the planner's view of them.
func Columns(tables []frame.Table) [][]string {
	cols := make([][]string, len(tables))
	for i, t := range tables {
		cols[i] = t.Columns()
	}
	return cols
}

func (e *Executor) lookup(name string) (*task.Spec, error) {
	spec, ok := e.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", registry.ErrUnknownTask, name)
	}
	if spec.Fn == nil {
		return nil, fmt.Errorf("task %q (handler %q): %w", name, spec.Handler, ErrFunctionNotBound)
	}
	return spec, nil
}
