package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/frametasks/internal/executor"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/registry"
)

func newRegistry(t *testing.T, client *http.Client) *registry.Registry {
	t.Helper()
	r := registry.New()
	(&Module{Client: client}).Register(r)
	require.NoError(t, r.LoadManifests(context.Background(), "."))
	require.NoError(t, r.ValidateRegistry(context.Background()))
	return r
}

func TestUploadFile(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		gotBody, gotType = string(raw), r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	source := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(source, []byte(`{"ok":true}`), 0o600))

	files := frame.MustNew(nil,
		frame.Strings("report.path", source, ""),
		frame.Strings("report.upload_url", srv.URL+"/bucket/report.json", srv.URL+"/bucket/none"),
	)
	out, plan, err := executor.New(newRegistry(t, srv.Client()), planner.DefaultOptions()).Execute(
		context.Background(), []frame.Table{files}, [][]string{{"report.upload.status"}})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "upload_file", plan[0].Task)
	assert.Equal(t, []string{"report.path", "report.upload_url"}, plan[0].Binding.Columns("x"))

	statuses, ok := out[1].Column("report.upload.status")
	require.True(t, ok)
	assert.Equal(t, "200 OK", frame.FormatValue(statuses[0]))
	assert.True(t, statuses[1].IsNull(), "rows without a path are skipped")
	assert.Equal(t, `{"ok":true}`, gotBody)
	assert.Equal(t, "application/json", gotType)
}

func TestUploadFileFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	source := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(source, []byte{1, 2, 3}, 0o600))

	files := frame.MustNew(nil,
		frame.Strings("data.path", source),
		frame.Strings("data.upload_url", srv.URL),
	)
	_, _, err := executor.New(newRegistry(t, srv.Client()), planner.DefaultOptions()).Execute(
		context.Background(), []frame.Table{files}, [][]string{{"data.upload.status"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 upload failed with status: 403 Forbidden")
}

func TestUploadNeedsMatchingURLColumn(t *testing.T) {
	files := frame.MustNew(nil,
		frame.Strings("a.path", "x"),
		frame.Strings("b.upload_url", "http://example.invalid"),
	)
	_, _, err := executor.New(newRegistry(t, http.DefaultClient), planner.DefaultOptions()).Execute(
		context.Background(), []frame.Table{files}, [][]string{{"a.upload.status"}})
	assert.ErrorIs(t, err, planner.ErrNoPlan)
}
