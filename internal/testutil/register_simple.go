package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/task"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single handler.
type SimpleModule struct {
	HandlerName string
	Fn          task.Func
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.HandlerName != "" && m.Fn != nil {
		r.RegisterHandler(m.HandlerName, m.Fn)
	}
}

// CallRecorder wraps a task function and remembers every call it receives.
type CallRecorder struct {
	mu    sync.Mutex
	calls []*task.Call
}

// Wrap returns fn instrumented with the recorder.
func (c *CallRecorder) Wrap(fn task.Func) task.Func {
	return func(ctx context.Context, call *task.Call) ([]frame.Table, error) {
		c.mu.Lock()
		c.calls = append(c.calls, call)
		c.mu.Unlock()
		return fn(ctx, call)
	}
}

// Calls returns the recorded calls in order.
func (c *CallRecorder) Calls() []*task.Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*task.Call(nil), c.calls...)
}
