package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/frametasks/internal/manifest"
	"github.com/specialistvlad/frametasks/internal/task"
)

var (
	// ErrUnknownTask is returned when a task name is not registered.
	ErrUnknownTask = errors.New("unknown task")
	// ErrDuplicateTask is returned when a task name is registered twice.
	ErrDuplicateTask = errors.New("duplicate task")
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the handlers and tasks of a single application instance.
// It is populated during startup and read-only afterwards.
type Registry struct {
	handlers    map[string]task.Func
	tasks       map[string]*task.Spec
	definitions map[string]*manifest.Definition
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		handlers:    make(map[string]task.Func),
		tasks:       make(map[string]*task.Spec),
		definitions: make(map[string]*manifest.Definition),
	}
}

// Register adds a finished task. It implements task.Sink.
func (r *Registry) Register(spec *task.Spec) error {
	if _, exists := r.tasks[spec.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, spec.Name)
	}
	r.tasks[spec.Name] = spec
	return nil
}

// BeginTask starts declaring a task that is registered when the builder ends.
func (r *Registry) BeginTask(name string) *task.Builder {
	return task.BeginTaskInto(r, name)
}

// Get returns the task registered under name.
func (r *Registry) Get(name string) (*task.Spec, bool) {
	spec, ok := r.tasks[name]
	return spec, ok
}

// Lookup is Get with an ErrUnknownTask error for missing names.
func (r *Registry) Lookup(name string) (*task.Spec, error) {
	spec, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	return spec, nil
}

// Names returns the registered task names sorted, which fixes the order in
// which the planner tries them.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	return len(r.tasks)
}

// Definition returns the manifest a task was loaded from, if any.
func (r *Registry) Definition(name string) (*manifest.Definition, bool) {
	def, ok := r.definitions[name]
	return def, ok
}
