package task

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/specialistvlad/frametasks/internal/variable"
)

// Sink receives finished tasks. The registry implements it.
type Sink interface {
	Register(spec *Spec) error
}

// Builder collects the declarations of one task. It replaces a shared
// "task under construction" cursor: each task gets its own builder, and End
// consumes it.
type Builder struct {
	name      string
	reqs      []Requirement
	gens      []Generation
	opts      Options
	passExtra *bool
	sink      Sink
	err       error
}

// BeginTask starts declaring a task that End returns without registering.
func BeginTask(name string) *Builder {
	return &Builder{name: name}
}

// BeginTaskInto starts declaring a task that End registers into sink.
func BeginTaskInto(sink Sink, name string) *Builder {
	return &Builder{name: name, sink: sink}
}

// Describe sets the human-readable description.
func (b *Builder) Describe(text string) *Builder {
	b.opts.Description = text
	return b
}

// Handler records the name of the registered function backing the task.
func (b *Builder) Handler(name string) *Builder {
	b.opts.Handler = name
	return b
}

// Require declares literal requirements for arg, in order.
func (b *Builder) Require(arg string, columns ...string) *Builder {
	for _, c := range columns {
		b.addRequirement(arg, variable.Literal, c)
	}
	return b
}

// RequirePattern declares pattern requirements for arg, in order.
func (b *Builder) RequirePattern(arg string, patterns ...string) *Builder {
	for _, p := range patterns {
		b.addRequirement(arg, variable.Pattern, p)
	}
	return b
}

// RequireRegexp declares pre-compiled pattern requirements for arg.
func (b *Builder) RequireRegexp(arg string, res ...*regexp.Regexp) *Builder {
	for _, re := range res {
		id := variable.FromRegexp(re)
		b.reqs = append(b.reqs, Requirement{
			Arg:     arg,
			Kind:    variable.Pattern,
			Text:    id.Text(),
			Ident:   id,
			Dynamic: variable.HasReference(id.Text()),
		})
	}
	return b
}

func (b *Builder) addRequirement(arg string, kind variable.Kind, text string) {
	req := Requirement{Arg: arg, Kind: kind, Text: text, Dynamic: variable.HasReference(text)}
	if !req.Dynamic {
		id, err := variable.Compile(kind, text)
		if err != nil {
			b.err = errors.Join(b.err, fmt.Errorf("task %q, argument %q: %w", b.name, arg, err))
			return
		}
		req.Ident = id
	}
	b.reqs = append(b.reqs, req)
}

// Makes declares generations for a destination group (NoGroup for a single
// result table). Setting appends carries unconsumed input columns forward.
func (b *Builder) Makes(group int, appends bool, templates ...string) *Builder {
	if len(templates) == 0 {
		b.err = errors.Join(b.err, fmt.Errorf("task %q: makes declares no columns", b.name))
		return b
	}
	for _, t := range templates {
		b.gens = append(b.gens, Generation{Group: group, Template: t})
	}
	if appends {
		b.opts.Appends = true
	}
	return b
}

// PassExtra sets whether the function receives the requirement map and the
// expected outputs. It defaults to true for generic tasks.
func (b *Builder) PassExtra(v bool) *Builder {
	b.passExtra = &v
	return b
}

// Generic marks the task generic even when all requirements are literal.
func (b *Builder) Generic() *Builder {
	b.opts.Generic = true
	return b
}

// End finishes the declaration with fn, which may be nil for tasks that are
// only planned. When the builder has a sink the task is registered into it.
func (b *Builder) End(fn Func) (*Spec, error) {
	if b.err != nil {
		return nil, b.err
	}

	opts := b.opts
	if b.passExtra != nil {
		opts.PassExtra = *b.passExtra
	} else {
		for _, r := range b.reqs {
			if r.Kind == variable.Pattern {
				opts.PassExtra = true
				break
			}
		}
		opts.PassExtra = opts.PassExtra || opts.Generic
	}

	spec, err := New(b.name, b.reqs, b.gens, fn, opts)
	if err != nil {
		return nil, err
	}
	if b.sink != nil {
		if err := b.sink.Register(spec); err != nil {
			return nil, err
		}
	}
	return spec, nil
}
