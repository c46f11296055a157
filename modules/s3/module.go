// Package s3 provides a task that uploads local files to pre-signed object
// storage URLs.
package s3

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/task"
	"github.com/specialistvlad/frametasks/modules/http_client"
)

// Module implements the registry.Module interface for this package. Client
// may be set to share a preconfigured client.
type Module struct {
	Client *http.Client
}

// Register registers the handler with the central registry.
func (m *Module) Register(r *registry.Registry) {
	if m.Client == nil {
		m.Client = http_client.NewClient(http_client.DefaultTimeout)
	}
	r.RegisterHandler("OnRunUploadFile", m.onRunUploadFile)
}

// onRunUploadFile uploads the file of every path cell to the URL on the same
// row and records the response status. Rows missing either value are
// skipped; a failed upload fails the task.
func (m *Module) onRunUploadFile(ctx context.Context, call *task.Call) ([]frame.Table, error) {
	x, ok := call.Args["x"]
	if !ok || len(x.Columns()) < 2 {
		return nil, fmt.Errorf("task %s: argument x needs a path and an upload url column", call.Task)
	}
	statusName := call.Expected(0)
	if statusName == "" {
		return nil, fmt.Errorf("task %s: expected outputs are not known", call.Task)
	}

	cols := x.Columns()
	paths, _ := x.Column(cols[0])
	urls, _ := x.Column(cols[1])
	statuses := make([]cty.Value, len(paths))
	for i := range paths {
		statuses[i] = cty.NullVal(cty.String)

		path, okPath := frame.AsString(paths[i])
		url, okURL := frame.AsString(urls[i])
		if !okPath || !okURL || path == "" || url == "" {
			continue
		}
		status, err := m.upload(ctx, path, url)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		statuses[i] = cty.StringVal(status)
	}

	return []frame.Table{frame.MustNew(x.Keys(), frame.Column{Name: statusName, Values: statuses})}, nil
}

// upload PUTs the file at sourcePath to a pre-signed URL.
func (m *Module) upload(ctx context.Context, sourcePath, uploadURL string) (string, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file '%s': %w", sourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file stats for '%s': %w", sourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return "", fmt.Errorf("failed to create S3 upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(sourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file to S3", "source", sourcePath, "size", stat.Size(), "contentType", contentType)

	resp, err := m.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("S3 upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded file", "status", resp.Status)
	return resp.Status, nil
}
