// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file turns a parsed Definition into a registered task.
package manifest

import (
	"fmt"

	"github.com/specialistvlad/frametasks/internal/task"
)

// Builder replays the definition onto a task builder.
func (d *Definition) Builder(sink task.Sink) *task.Builder {
	var b *task.Builder
	if sink != nil {
		b = task.BeginTaskInto(sink, d.Name)
	} else {
		b = task.BeginTask(d.Name)
	}
	b.Describe(d.Description).Handler(d.Handler)

	for _, r := range d.Requires {
		if len(r.Patterns) > 0 {
			b.RequirePattern(r.Arg, r.Patterns...)
			continue
		}
		b.Require(r.Arg, r.Columns...)
	}
	for _, g := range d.Makes {
		group := task.NoGroup
		if g.Group != nil {
			group = *g.Group
		}
		b.Makes(group, g.Appends, g.Columns...)
	}
	if d.PassExtra != nil {
		b.PassExtra(*d.PassExtra)
	}
	if d.Generic {
		b.Generic()
	}
	return b
}

// Build registers the definition into sink with fn as its function. fn may
// be nil when the handler is not available; such a task can still be
// planned.
func (d *Definition) Build(sink task.Sink, fn task.Func) (*task.Spec, error) {
	spec, err := d.Builder(sink).End(fn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.location(), err)
	}
	return spec, nil
}

func (d *Definition) location() string {
	if d.FSInformation == nil {
		return fmt.Sprintf("task %q", d.Name)
	}
	return fmt.Sprintf("task %q in %s", d.Name, d.FSInformation.FilePath)
}
