package env_vars

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/frametasks/internal/executor"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/registry"
)

func TestEnvVarsTable(t *testing.T) {
	t.Setenv("FRAMETASKS_TEST_VAR", "a=b")

	r := registry.New()
	(&Module{}).Register(r)
	require.NoError(t, r.LoadManifests(context.Background(), "."))

	out, plan, err := executor.New(r, planner.DefaultOptions()).Execute(context.Background(), nil, [][]string{{"env.value"}})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Len(t, out, 1)

	names, _ := out[0].Column("env.name")
	values, _ := out[0].Column("env.value")
	found := false
	for i, n := range names {
		if frame.FormatValue(n) == "FRAMETASKS_TEST_VAR" {
			found = true
			assert.Equal(t, "a=b", frame.FormatValue(values[i]))
		}
	}
	assert.True(t, found)
}
