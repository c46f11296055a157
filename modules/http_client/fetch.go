package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/task"
)

// onRunFetchURL issues a GET for every URL cell and returns the body and the
// status code. Failed requests leave both cells empty and are logged.
func (m *Module) onRunFetchURL(ctx context.Context, call *task.Call) ([]frame.Table, error) {
	logger := ctxlog.FromContext(ctx)

	x, ok := call.Args["x"]
	if !ok || len(x.Columns()) == 0 {
		return nil, fmt.Errorf("task %s: argument x has no url column", call.Task)
	}
	bodyName, statusName := call.Expected(0), call.Expected(1)
	if bodyName == "" || statusName == "" {
		return nil, fmt.Errorf("task %s: expected outputs are not known", call.Task)
	}

	urls, _ := x.Column(x.Columns()[0])
	bodies := make([]cty.Value, len(urls))
	statuses := make([]cty.Value, len(urls))
	for i, v := range urls {
		bodies[i], statuses[i] = cty.NullVal(cty.String), cty.NullVal(cty.Number)

		url, ok := frame.AsString(v)
		if !ok || url == "" {
			continue
		}
		body, status, err := m.get(ctx, url)
		if err != nil {
			logger.Warn("HTTP request failed.", "url", url, "error", err)
			continue
		}
		logger.Debug("Received HTTP response", "url", url, "status", status)
		bodies[i] = cty.StringVal(body)
		statuses[i] = cty.NumberIntVal(int64(status))
	}

	fetched := frame.MustNew(x.Keys(),
		frame.Column{Name: bodyName, Values: bodies},
		frame.Column{Name: statusName, Values: statuses},
	)
	return []frame.Table{x.Join(fetched)}, nil
}

func (m *Module) get(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return string(bodyBytes), resp.StatusCode, nil
}
