package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/executor"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/plancodec"
	"github.com/specialistvlad/frametasks/internal/planner"
)

// Run is the main entry point for the application logic. It loads the task
// manifests, validates the registry and dispatches the configured command.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger.With("command", a.config.Command)
	logger.Info("Starting frametasks...")

	if err := a.LoadModules(); err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	if err := a.registry.ValidateRegistry(a.ctx); err != nil {
		if a.config.Command == CommandRun {
			return err
		}
		logger.Warn("Registry is incomplete, affected tasks cannot be executed.", "error", err)
	}

	var err error
	switch a.config.Command {
	case CommandRun:
		err = a.runCommand()
	case CommandPlan:
		err = a.planCommand()
	case CommandNext:
		err = a.nextCommand()
	case CommandTasks:
		err = a.tasksCommand()
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}
	if err != nil {
		return err
	}

	logger.Info("Finished successfully.")
	return nil
}

func (a *App) runCommand() error {
	tables, err := a.LoadTables()
	if err != nil {
		return err
	}
	ex := executor.New(a.registry, a.plannerOptions())

	var (
		out  []frame.Table
		plan []planner.Action
		goal = a.config.Goal
	)
	if a.config.PlanIn != "" {
		doc, err := a.loadPlan()
		if err != nil {
			return err
		}
		if err := checkColumns(executor.Columns(tables), doc.Tables); err != nil {
			return err
		}
		if len(goal) == 0 {
			goal = doc.Goal
		}
		plan = doc.Actions
		out, err = ex.Perform(a.ctx, tables, plan)
		if err != nil {
			return err
		}
	} else {
		out, plan, err = ex.Execute(a.ctx, tables, goal)
		if err != nil {
			return err
		}
		if err := a.savePlan(plancodec.NewDocument(executor.Columns(tables), goal, plan)); err != nil {
			return err
		}
	}

	return a.writeTables(goalTables(a.ctx, out, goal))
}

func (a *App) planCommand() error {
	tables, err := a.LoadTables()
	if err != nil {
		return err
	}
	ex := executor.New(a.registry, a.plannerOptions())
	plan, err := ex.Plan(a.ctx, tables, a.config.Goal)
	if err != nil {
		return err
	}

	for i, action := range plan {
		fmt.Fprintf(a.outW, "%d. %s\n", i+1, action)
	}
	return a.savePlan(plancodec.NewDocument(executor.Columns(tables), a.config.Goal, plan))
}

// nextCommand prints the actions applicable after the stored plan, if any,
// has been applied to the tables.
func (a *App) nextCommand() error {
	var columns [][]string
	if len(a.config.TablePaths) > 0 {
		tables, err := a.LoadTables()
		if err != nil {
			return err
		}
		columns = executor.Columns(tables)
	}

	state := planner.NewState(columns)
	if a.config.PlanIn != "" {
		doc, err := a.loadPlan()
		if err != nil {
			return err
		}
		if columns == nil {
			columns = doc.Tables
		} else if err := checkColumns(columns, doc.Tables); err != nil {
			return err
		}
		state = planner.Apply(planner.NewState(columns), doc.Actions...)
	}

	actions := planner.NextActions(a.registry, state, a.plannerOptions())
	ctxlog.FromContext(a.ctx).Info("Next actions enumerated.", "count", len(actions), "groups", len(state.Groups))
	for i, action := range actions {
		fmt.Fprintf(a.outW, "%d. %s\n", i+1, action)
	}
	return nil
}

func (a *App) tasksCommand() error {
	for _, name := range a.registry.Names() {
		spec, _ := a.registry.Get(name)
		fmt.Fprintln(a.outW, spec)

		var details []string
		if spec.Description != "" {
			details = append(details, spec.Description)
		}
		if spec.Handler != "" {
			details = append(details, "handler="+spec.Handler)
		}
		if def, ok := a.registry.Definition(name); ok && def.FSInformation != nil {
			details = append(details, "file="+def.FSInformation.FilePath)
		}
		if len(details) > 0 {
			fmt.Fprintf(a.outW, "    %s\n", strings.Join(details, "; "))
		}
	}
	return nil
}

// checkColumns verifies that the loaded tables provide at least the columns
// a stored plan was made for.
func checkColumns(have, planned [][]string) error {
	if len(have) < len(planned) {
		return fmt.Errorf("plan expects %d tables, got %d", len(planned), len(have))
	}
	for i, want := range planned {
		for _, col := range want {
			if !slices.Contains(have[i], col) {
				return fmt.Errorf("plan expects column %q in table %d", col, i)
			}
		}
	}
	return nil
}

// goalTables picks, for each goal group, the latest table holding all of its
// variables. Without a goal the last table is the result.
func goalTables(ctx context.Context, tables []frame.Table, goal [][]string) []frame.Table {
	if len(tables) == 0 {
		return nil
	}
	if len(goal) == 0 {
		return tables[len(tables)-1:]
	}

	var picked []int
	for _, want := range goal {
		found := false
		for i := len(tables) - 1; i >= 0; i-- {
			if hasColumns(tables[i], want) {
				if !slices.Contains(picked, i) {
					picked = append(picked, i)
				}
				found = true
				break
			}
		}
		if !found {
			ctxlog.FromContext(ctx).Warn("No table holds the goal variables.", "goal", want)
		}
	}

	result := make([]frame.Table, len(picked))
	for i, idx := range picked {
		result[i] = tables[idx]
	}
	return result
}

func hasColumns(t frame.Table, want []string) bool {
	cols := t.Columns()
	for _, w := range want {
		if !slices.Contains(cols, w) {
			return false
		}
	}
	return true
}

// writeTables writes the result tables as CSV to the configured path, or to
// the output writer. Several tables written to one path get numbered files.
func (a *App) writeTables(tables []frame.Table) error {
	path := a.config.OutPath
	if path == "" {
		for i, t := range tables {
			if i > 0 {
				fmt.Fprintln(a.outW)
			}
			if err := frame.WriteCSV(a.outW, t); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
		}
		return nil
	}

	for i, t := range tables {
		target := path
		if len(tables) > 1 {
			ext := filepath.Ext(path)
			target = fmt.Sprintf("%s.%d%s", strings.TrimSuffix(path, ext), i, ext)
		}
		if err := writeTableFile(target, t); err != nil {
			return err
		}
		ctxlog.FromContext(a.ctx).Info("Result written.", "path", target, "rows", t.Len())
	}
	return nil
}

func writeTableFile(path string, t frame.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	if err := frame.WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
