package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/specialistvlad/frametasks/internal/task"
)

// RegisterHandler registers a Go function under the name manifests use in
// their `handler` attribute.
func (r *Registry) RegisterHandler(name string, fn task.Func) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	if fn == nil {
		panic(fmt.Sprintf("handler '%s' registered with a nil function", name))
	}
	slog.Debug("Registering handler.", "name", name)
	r.handlers[name] = fn
}

// Handler returns the function registered under name.
func (r *Registry) Handler(name string) (task.Func, bool) {
	fn, ok := r.handlers[name]
	return fn, ok
}

// HandlerNames returns the registered handler names sorted.
func (r *Registry) HandlerNames() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
