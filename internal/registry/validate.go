package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
)

// ValidateRegistry performs a parity check between manifests and Go code:
// every manifest task must name a registered handler. Handlers that no task
// uses only produce a warning.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	used := make(map[string]bool)
	for _, name := range r.Names() {
		spec := r.tasks[name]
		if spec.Handler != "" {
			used[spec.Handler] = true
		}
		if spec.Fn != nil {
			continue
		}

		where := ""
		if def, ok := r.definitions[name]; ok && def.FSInformation != nil {
			where = fmt.Sprintf(" (declared in %s)", def.FSInformation.FilePath)
		}
		if spec.Handler == "" {
			errs = append(errs, fmt.Sprintf("task '%s'%s has no function", name, where))
			continue
		}
		errs = append(errs, fmt.Sprintf("task '%s'%s: handler '%s' is not registered", name, where, spec.Handler))
	}

	for _, name := range r.HandlerNames() {
		if !used[name] {
			logger.Warn("Registered handler is not used by any task.", "handler", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
