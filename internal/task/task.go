// Package task defines a registered task: the variables it requires, the
// variables it generates, and the function the executor calls to run it.
package task

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/variable"
)

var (
	// ErrUnsatisfiableTask is returned when no requirement can be bound
	// first because every requirement depends on a back-reference.
	ErrUnsatisfiableTask = errors.New("unsatisfiable task")
	// ErrAppendContract is returned when appends is requested for a task or
	// binding whose inputs can span more than one source table.
	ErrAppendContract = errors.New("append contract violated")
)

// NoGroup is the destination group of a generation when the task returns a
// single table rather than an indexed list.
const NoGroup = -1

// Requirement binds one variable to an argument of the task function.
type Requirement struct {
	Arg string
	// Kind selects how Text is compiled.
	Kind variable.Kind
	// Text is the identifier source, possibly holding back-reference tokens.
	Text string
	// Ident is the compiled identifier. It is only set for static requirements.
	Ident variable.Identifier
	// Dynamic is true when Text holds back-reference tokens.
	Dynamic bool
}

// Generation declares one produced variable.
type Generation struct {
	Group    int
	Template string
}

// Output is a generation resolved against a binding: a concrete variable name
// and the result table it belongs to.
type Output struct {
	Group    int
	Variable string
}

// RequireKey addresses one requirement in the map handed to task functions.
type RequireKey struct {
	Arg   string
	Ident string
}

// Call carries the data of one task invocation.
type Call struct {
	Task string
	// Args holds one projected table per argument.
	Args map[string]frame.Table
	// Requires maps each bound requirement to the variable it matched. It is
	// nil unless the task passes extras.
	Requires map[RequireKey]string
	// Expects lists the resolved generations. It is nil unless the task
	// passes extras.
	Expects []Output
}

// Expected returns the variable name of the i-th expected output, or the
// empty string when there is none.
func (c *Call) Expected(i int) string {
	if i < 0 || i >= len(c.Expects) {
		return ""
	}
	return c.Expects[i].Variable
}

// Func is the callable bound to a task. It returns one table per destination
// group, or exactly one table for tasks without groups.
type Func func(ctx context.Context, call *Call) ([]frame.Table, error)

// Spec is an immutable registered task.
type Spec struct {
	Name         string
	Description  string
	Requirements []Requirement
	Generations  []Generation
	Appends      bool
	PassExtra    bool
	// Handler names the registered function, when the task came from a manifest.
	Handler string
	Fn      Func

	generic bool
}

// Options are the flags of a task that are not requirements or generations.
type Options struct {
	Description string
	Appends     bool
	PassExtra   bool
	Generic     bool
	Handler     string
}

// New validates a task and orders its requirements so that static ones are
// attempted before those that depend on back-references.
func New(name string, reqs []Requirement, gens []Generation, fn Func, opts Options) (*Spec, error) {
	if name == "" {
		return nil, errors.New("task name must not be empty")
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("task %q declares no generations", name)
	}

	static := make([]Requirement, 0, len(reqs))
	var dynamic []Requirement
	for _, r := range reqs {
		if r.Arg == "" {
			return nil, fmt.Errorf("task %q has a requirement without an argument name", name)
		}
		if r.Dynamic {
			dynamic = append(dynamic, r)
			continue
		}
		static = append(static, r)
	}
	if len(reqs) > 0 && len(static) == 0 {
		return nil, fmt.Errorf("task %q: every requirement depends on a back-reference: %w", name, ErrUnsatisfiableTask)
	}

	grouped, ungrouped := false, false
	for _, g := range gens {
		if g.Group == NoGroup {
			ungrouped = true
		} else if g.Group < 0 {
			return nil, fmt.Errorf("task %q: invalid destination group %d", name, g.Group)
		} else {
			grouped = true
		}
	}
	if grouped && ungrouped {
		return nil, fmt.Errorf("task %q mixes grouped and ungrouped generations", name)
	}

	spec := &Spec{
		Name:         name,
		Description:  opts.Description,
		Requirements: append(static, dynamic...),
		Generations:  slices.Clone(gens),
		Appends:      opts.Appends,
		PassExtra:    opts.PassExtra,
		Handler:      opts.Handler,
		Fn:           fn,
		generic:      opts.Generic,
	}
	if spec.Appends && len(spec.Arguments()) > 1 {
		return nil, fmt.Errorf("task %q appends but reads from %d arguments: %w", name, len(spec.Arguments()), ErrAppendContract)
	}
	return spec, nil
}

// IsGeneric reports whether any requirement is a pattern, or the task was
// explicitly marked generic.
func (s *Spec) IsGeneric() bool {
	if s.generic {
		return true
	}
	for _, r := range s.Requirements {
		if r.Kind == variable.Pattern {
			return true
		}
	}
	return false
}

// Arguments returns the distinct argument names in requirement order.
func (s *Spec) Arguments() []string {
	var args []string
	for _, r := range s.Requirements {
		if !slices.Contains(args, r.Arg) {
			args = append(args, r.Arg)
		}
	}
	return args
}

// Groups returns the distinct destination groups in declaration order.
func (s *Spec) Groups() []int {
	var groups []int
	for _, g := range s.Generations {
		if !slices.Contains(groups, g.Group) {
			groups = append(groups, g.Group)
		}
	}
	return groups
}

func (s *Spec) String() string {
	return fmt.Sprintf("%s: %v -> %v", s.Name, s.Requirements, s.Generations)
}

func (r Requirement) String() string {
	return fmt.Sprintf("%s=%s(%s)", r.Arg, r.Kind, r.Text)
}

func (g Generation) String() string {
	if g.Group == NoGroup {
		return g.Template
	}
	return fmt.Sprintf("%d:%s", g.Group, g.Template)
}

// GroupOutputs splits outputs by destination group, keeping groups in order of
// first appearance and names in output order without duplicates.
func GroupOutputs(outputs []Output) (groups []int, names [][]string) {
	index := make(map[int]int)
	for _, o := range outputs {
		i, ok := index[o.Group]
		if !ok {
			i = len(groups)
			index[o.Group] = i
			groups = append(groups, o.Group)
			names = append(names, nil)
		}
		if !slices.Contains(names[i], o.Variable) {
			names[i] = append(names[i], o.Variable)
		}
	}
	return groups, names
}
