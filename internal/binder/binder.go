package binder

import (
	"iter"
	"regexp"
	"slices"

	"github.com/specialistvlad/frametasks/internal/task"
	"github.com/specialistvlad/frametasks/internal/variable"
)

// Candidate is one way to call a task: the binding and the outputs it would
// produce.
type Candidate struct {
	Binding Binding
	Outputs []task.Output
}

// Satisfy yields every distinct complete binding of have to the requirements
// of spec, together with its resolved outputs. have[i] lists the variables
// available in table group i; candidates are enumerated in that order.
//
// Branches whose back-references cannot be resolved are pruned silently.
func Satisfy(have [][]string, spec *task.Spec) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		s := &solver{have: have, spec: spec, yield: yield}
		s.solve(0, nil)
	}
}

// All collects Satisfy into a slice.
func All(have [][]string, spec *task.Spec) []Candidate {
	return slices.Collect(Satisfy(have, spec))
}

type solver struct {
	have  [][]string
	spec  *task.Spec
	yield func(Candidate) bool
}

// solve binds requirement i onwards. It returns false once the consumer
// stops the iteration.
func (s *solver) solve(i int, bound *link) bool {
	if i == len(s.spec.Requirements) {
		binding := bound.binding()
		outputs, ok := s.outputs(binding)
		if !ok {
			return true
		}
		return s.yield(Candidate{Binding: binding, Outputs: outputs})
	}

	req := s.spec.Requirements[i]
	ident := req.Ident
	if req.Dynamic {
		text, ok := variable.Resolve(req.Text, lookup(bound.binding()), regexp.QuoteMeta)
		if !ok {
			return true
		}
		resolved, err := variable.Compile(req.Kind, text)
		if err != nil {
			return true
		}
		ident = resolved
	}

	fixed, restricted := bound.source(req.Arg)
	for source, names := range s.have {
		if restricted && source != fixed {
			continue
		}
		for _, name := range names {
			if !ident.Matches(name) {
				continue
			}
			key := Key{Source: source, Variable: name}
			if bound.contains(key) {
				continue
			}
			if !s.solve(i+1, bound.extend(Entry{Key: key, Arg: req.Arg, Ident: ident})) {
				return false
			}
		}
	}
	return true
}

// outputs resolves the generations of the task against a complete binding,
// adding the carried-forward columns when the task appends.
func (s *solver) outputs(binding Binding) ([]task.Output, bool) {
	resolve := lookup(binding)
	outputs := make([]task.Output, 0, len(s.spec.Generations))
	for _, g := range s.spec.Generations {
		name, ok := variable.Resolve(g.Template, resolve, nil)
		if !ok {
			return nil, false
		}
		outputs = append(outputs, task.Output{Group: g.Group, Variable: name})
	}

	if !s.spec.Appends {
		return outputs, true
	}
	sources := binding.Sources()
	switch len(sources) {
	case 0:
		return outputs, true
	case 1:
	default:
		return nil, false
	}
	if sources[0] >= len(s.have) {
		return outputs, true
	}

	carried := s.have[sources[0]]
	groups, names := task.GroupOutputs(outputs)
	for gi, group := range groups {
		for _, col := range carried {
			if slices.Contains(names[gi], col) {
				continue
			}
			names[gi] = append(names[gi], col)
			outputs = append(outputs, task.Output{Group: group, Variable: col})
		}
	}
	return outputs, true
}

// lookup resolves back-references against a binding: the Index-th entry of
// the argument, re-matched against its bound variable, Group-th capture.
func lookup(binding Binding) variable.Lookup {
	return func(ref variable.Reference) (string, bool) {
		e, ok := binding.Nth(ref.Arg, ref.Index)
		if !ok {
			return "", false
		}
		groups, ok := e.Ident.Captures(e.Variable)
		if !ok || ref.Group >= len(groups) {
			return "", false
		}
		return groups[ref.Group], true
	}
}
