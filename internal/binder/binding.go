// Package binder assigns available variables to the requirements of a task.
//
// Satisfy enumerates every complete assignment lazily. The search is a
// depth-first backtracking over the task's requirements; the partial binding
// of each branch is an immutable linked list that children extend, so a
// branch never observes a sibling's trial bindings and nothing has to be
// restored on the way back up.
package binder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/frametasks/internal/variable"
)

// Key addresses one available variable: the table group it lives in and its name.
type Key struct {
	Source   int
	Variable string
}

// Entry binds one available variable to a requirement.
type Entry struct {
	Key
	Arg   string
	Ident variable.Identifier
}

// Binding is one complete assignment, in requirement order. Each Key appears
// at most once and all entries of one argument share a source.
type Binding []Entry

// Lookup returns the entry bound to k.
func (b Binding) Lookup(k Key) (Entry, bool) {
	for _, e := range b {
		if e.Key == k {
			return e, true
		}
	}
	return Entry{}, false
}

// Nth returns the n-th entry bound to arg.
func (b Binding) Nth(arg string, n int) (Entry, bool) {
	seen := 0
	for _, e := range b {
		if e.Arg != arg {
			continue
		}
		if seen == n {
			return e, true
		}
		seen++
	}
	return Entry{}, false
}

// Source returns the table group the argument is bound to.
func (b Binding) Source(arg string) (int, bool) {
	for _, e := range b {
		if e.Arg == arg {
			return e.Source, true
		}
	}
	return 0, false
}

// Columns returns the variables bound to arg, in requirement order.
func (b Binding) Columns(arg string) []string {
	var cols []string
	for _, e := range b {
		if e.Arg == arg {
			cols = append(cols, e.Variable)
		}
	}
	return cols
}

// Arguments returns the distinct argument names in requirement order.
func (b Binding) Arguments() []string {
	var args []string
	for _, e := range b {
		if !slices.Contains(args, e.Arg) {
			args = append(args, e.Arg)
		}
	}
	return args
}

// Sources returns the distinct table groups the binding reads, ascending.
func (b Binding) Sources() []int {
	var sources []int
	for _, e := range b {
		if !slices.Contains(sources, e.Source) {
			sources = append(sources, e.Source)
		}
	}
	slices.Sort(sources)
	return sources
}

func (b Binding) String() string {
	parts := make([]string, 0, len(b))
	for _, e := range b {
		parts = append(parts, fmt.Sprintf("%s=%d:%s", e.Arg, e.Source, e.Variable))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// link is one cell of a persistent binding list. Cells are never modified
// after creation; a branch extends its parent by allocating a new head.
type link struct {
	entry Entry
	prev  *link
	size  int
}

func (l *link) extend(e Entry) *link {
	return &link{entry: e, prev: l, size: l.len() + 1}
}

func (l *link) len() int {
	if l == nil {
		return 0
	}
	return l.size
}

func (l *link) contains(k Key) bool {
	for c := l; c != nil; c = c.prev {
		if c.entry.Key == k {
			return true
		}
	}
	return false
}

func (l *link) source(arg string) (int, bool) {
	for c := l; c != nil; c = c.prev {
		if c.entry.Arg == arg {
			return c.entry.Source, true
		}
	}
	return 0, false
}

// binding materializes the list in insertion order.
func (l *link) binding() Binding {
	out := make(Binding, l.len())
	i := len(out) - 1
	for c := l; c != nil; c = c.prev {
		out[i] = c.entry
		i--
	}
	return out
}
