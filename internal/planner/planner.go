// Package planner searches for a sequence of task invocations that turns the
// variables of the initial tables into a state holding every goal variable.
//
// The search is breadth-first over States with a visited set, so the first
// plan found is one of the shortest by action count. Generic tasks may only
// be repeated a bounded number of times along a path, which keeps pattern
// tasks from generating an endless chain of new names.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/frametasks/internal/binder"
	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/task"
)

var (
	// ErrNoPlan is returned when the search is exhausted without reaching the goal.
	ErrNoPlan = errors.New("no plan found")
	// ErrStateLimit is returned when the search hits Options.MaxStates.
	ErrStateLimit = errors.New("state limit reached")
)

// Catalog is the read-only view of the registered tasks the planner needs.
type Catalog interface {
	// Names returns the task names in a stable order.
	Names() []string
	Get(name string) (*task.Spec, bool)
}

// Options tune the search.
type Options struct {
	// MaxGenericRepeat bounds how often one generic task may appear on a
	// path. Zero or less disables the bound.
	MaxGenericRepeat int
	// MaxStates bounds the number of expanded states. Zero means unbounded.
	MaxStates int
}

// DefaultOptions allows each generic task once per path.
func DefaultOptions() Options {
	return Options{MaxGenericRepeat: 1}
}

// NextActions enumerates the actions applicable in a state, in catalog order.
// An action is skipped when any of its new groups already exists in the state.
func NextActions(cat Catalog, s State, opts Options) []Action {
	var actions []Action
	for _, name := range cat.Names() {
		spec, ok := cat.Get(name)
		if !ok {
			continue
		}
		if spec.IsGeneric() && opts.MaxGenericRepeat > 0 && s.count(name) >= opts.MaxGenericRepeat {
			continue
		}
		for c := range binder.Satisfy(s.Groups, spec) {
			a := Action{Task: name, Binding: c.Binding, Outputs: c.Outputs}
			if !addsNewGroups(s, a) {
				continue
			}
			actions = append(actions, a)
		}
	}
	return actions
}

func addsNewGroups(s State, a Action) bool {
	groups := a.NewGroups()
	if len(groups) == 0 {
		return false
	}
	for _, g := range groups {
		if s.hasGroup(g) {
			return false
		}
	}
	return true
}

type node struct {
	state  State
	action Action
	parent *node
	depth  int
}

func (n *node) path() []Action {
	actions := make([]Action, n.depth)
	for c := n; c.parent != nil; c = c.parent {
		actions[c.depth-1] = c.action
	}
	return actions
}

// Search finds a shortest list of actions from the initial tables' columns to
// a state satisfying goal. It returns an empty plan when the initial state
// already satisfies the goal, and ErrNoPlan when the reachable state space is
// exhausted. The context is checked between expansions so callers can bound
// the search time.
func Search(ctx context.Context, cat Catalog, initial [][]string, goal [][]string, opts Options) ([]Action, error) {
	logger := ctxlog.FromContext(ctx)

	start := &node{state: NewState(initial)}
	if IsGoal(start.state, goal) {
		logger.Debug("Initial tables already satisfy the goal.")
		return []Action{}, nil
	}

	visited := map[string]struct{}{start.state.key(): {}}
	frontier := []*node{start}
	expanded := 0

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search interrupted after %d states: %w", expanded, err)
		}
		if opts.MaxStates > 0 && expanded >= opts.MaxStates {
			return nil, fmt.Errorf("%w: expanded %d states", ErrStateLimit, expanded)
		}

		current := frontier[0]
		frontier = frontier[1:]
		expanded++

		actions := NextActions(cat, current.state, opts)
		logger.Debug("Expanding state.", "depth", current.depth, "actions", len(actions), "frontier", len(frontier), "expanded", expanded)

		for _, a := range actions {
			next := &node{
				state:  Result(current.state, a),
				action: a,
				parent: current,
				depth:  current.depth + 1,
			}
			key := next.state.key()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}

			if IsGoal(next.state, goal) {
				plan := next.path()
				logger.Debug("Goal reached.", "actions", len(plan), "expanded", expanded)
				return plan, nil
			}
			frontier = append(frontier, next)
		}
	}

	return nil, fmt.Errorf("%w: goal %v unreachable after %d states", ErrNoPlan, goal, expanded)
}
