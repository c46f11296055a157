// Package env_vars provides a source task that lists the process
// environment as a table.
package env_vars

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunEnvVars returns one row per environment variable, sorted by name.
func OnRunEnvVars(_ context.Context, call *task.Call) ([]frame.Table, error) {
	env := os.Environ()
	slices.Sort(env)

	names := make([]string, 0, len(env))
	values := make([]string, 0, len(env))
	for _, e := range env {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			names = append(names, pair[0])
			values = append(values, pair[1])
		}
	}

	nameCol, valueCol := "env.name", "env.value"
	if n := call.Expected(0); n != "" {
		nameCol = n
	}
	if v := call.Expected(1); v != "" {
		valueCol = v
	}
	return []frame.Table{frame.MustNew(nil, frame.Strings(nameCol, names...), frame.Strings(valueCol, values...))}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnRunEnvVars", OnRunEnvVars)
}
