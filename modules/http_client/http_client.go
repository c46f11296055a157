// Package http_client provides a task that downloads the document each URL
// cell points to, over one shared HTTP client.
package http_client

import (
	"net/http"
	"time"

	"github.com/specialistvlad/frametasks/internal/registry"
)

// DefaultTimeout bounds a single request when the module builds its own client.
const DefaultTimeout = 30 * time.Second

// Module implements the registry.Module interface. Client may be set to
// share a preconfigured client; otherwise one is created on Register.
type Module struct {
	Client *http.Client
}

// NewClient returns a pooled client with the given request timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Register registers the fetch handler with the central registry.
func (m *Module) Register(r *registry.Registry) {
	if m.Client == nil {
		m.Client = NewClient(DefaultTimeout)
	}
	r.RegisterHandler("OnRunFetchURL", m.onRunFetchURL)
}
