package http_client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/frametasks/internal/executor"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/registry"
)

func TestFetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "line one\nline two")
	}))
	defer srv.Close()

	r := registry.New()
	(&Module{Client: srv.Client()}).Register(r)
	require.NoError(t, r.LoadManifests(context.Background(), "."))
	require.NoError(t, r.ValidateRegistry(context.Background()))

	pages := frame.MustNew(nil,
		frame.Strings("page.url", srv.URL+"/doc", srv.URL+"/missing", "http://[::1]:namedport"),
		frame.Strings("title", "doc", "missing", "broken"),
	)
	out, plan, err := executor.New(r, planner.DefaultOptions()).Execute(
		context.Background(), []frame.Table{pages}, [][]string{{"page.fetch.multiline", "title"}})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Len(t, out, 2)

	result := out[1]
	assert.Equal(t, []string{"page.url", "page.fetch.multiline", "page.fetch.status", "title"}, result.Columns())

	bodies, _ := result.Column("page.fetch.multiline")
	assert.Equal(t, cty.StringVal("line one\nline two"), bodies[0])
	assert.True(t, bodies[2].IsNull(), "an invalid url leaves the row empty")

	statuses, _ := result.Column("page.fetch.status")
	assert.Equal(t, []string{"200", "404", ""}, []string{
		frame.FormatValue(statuses[0]), frame.FormatValue(statuses[1]), frame.FormatValue(statuses[2]),
	})
}

func TestRegisterCreatesClient(t *testing.T) {
	m := &Module{}
	m.Register(registry.New())
	require.NotNil(t, m.Client)
	assert.Equal(t, DefaultTimeout, m.Client.Timeout)
}
