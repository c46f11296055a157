package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/frametasks/internal/binder"
	"github.com/specialistvlad/frametasks/internal/task"
)

// State is one point in the search: the variable sets of every table group,
// initial tables first, and the names of the tasks applied so far. States are
// values; transitions build new ones and never modify existing groups.
type State struct {
	Groups [][]string
	Tasks  []string
}

// NewState builds the initial state from the column names of the source
// tables. Each group is copied, sorted and deduplicated.
func NewState(initial [][]string) State {
	groups := make([][]string, len(initial))
	for i, cols := range initial {
		groups[i] = normalize(cols)
	}
	return State{Groups: groups}
}

func normalize(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}

func groupKey(names []string) string {
	return strings.Join(names, "\x00")
}

// hasGroup reports whether a group with exactly these (normalized) names exists.
func (s State) hasGroup(names []string) bool {
	for _, g := range s.Groups {
		if slices.Equal(g, names) {
			return true
		}
	}
	return false
}

// key identifies a state for the visited set. Task history only influences
// the search through repeat counts, so it is keyed as a sorted multiset.
func (s State) key() string {
	var b strings.Builder
	for _, g := range s.Groups {
		b.WriteString(groupKey(g))
		b.WriteByte('\x01')
	}
	b.WriteByte('\x02')
	tasks := slices.Clone(s.Tasks)
	slices.Sort(tasks)
	b.WriteString(strings.Join(tasks, "\x00"))
	return b.String()
}

func (s State) count(taskName string) int {
	n := 0
	for _, t := range s.Tasks {
		if t == taskName {
			n++
		}
	}
	return n
}

// Action is one task invocation: the task, how its requirements are bound,
// and the variables it produces.
type Action struct {
	Task    string
	Binding binder.Binding
	Outputs []task.Output
}

// NewGroups returns the variable sets the action appends to a state, one per
// distinct destination group in order of first appearance, each normalized.
func (a Action) NewGroups() [][]string {
	_, names := task.GroupOutputs(a.Outputs)
	for i := range names {
		names[i] = normalize(names[i])
	}
	return names
}

func (a Action) String() string {
	outs := make([]string, len(a.Outputs))
	for i, o := range a.Outputs {
		if o.Group == task.NoGroup {
			outs[i] = o.Variable
			continue
		}
		outs[i] = fmt.Sprintf("%d:%s", o.Group, o.Variable)
	}
	return fmt.Sprintf("%s%s -> [%s]", a.Task, a.Binding, strings.Join(outs, ", "))
}

// Result applies an action to a state.
func Result(s State, a Action) State {
	groups := make([][]string, 0, len(s.Groups)+1)
	groups = append(groups, s.Groups...)
	groups = append(groups, a.NewGroups()...)

	tasks := make([]string, 0, len(s.Tasks)+1)
	tasks = append(tasks, s.Tasks...)
	tasks = append(tasks, a.Task)

	return State{Groups: groups, Tasks: tasks}
}

// Apply replays a stored list of actions onto a state.
func Apply(s State, actions ...Action) State {
	for _, a := range actions {
		s = Result(s, a)
	}
	return s
}

// IsGoal reports whether every goal group is a subset of at least one state group.
func IsGoal(s State, goal [][]string) bool {
	for _, want := range goal {
		found := false
		for _, g := range s.Groups {
			if containsAll(g, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsAll(sorted []string, want []string) bool {
	for _, w := range want {
		if _, ok := slices.BinarySearch(sorted, w); !ok {
			return false
		}
	}
	return true
}
