package integrationtests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opnet/internal/executor"
	"opnet/internal/testutil"
	"opnet/modules/addint"
	"opnet/modules/rng"
)

const chainHCL = `
network {
  name = "hcl-chain"
  shared_data = {
    offset = 5
  }
}

operator "rng" "int" {
  id     = "roll"
  params = { max = 10, seed = 42 }
  save_output = true
  shared_output_name = "rolled"
}

operator "addint" "add" {
  id        = "shift"
  run_after = "roll"
  shared_inputs = {
    rolled = "a"
    offset = "b"
  }
  save_output = true
  shared_output_name = "shifted"
}
`

func TestHCLChain(t *testing.T) {
	res := testutil.RunDefinition(t, "net.hcl", chainHCL, &rng.Module{}, &addint.Module{})
	require.NoError(t, res.Err)
	require.False(t, res.Failed(), res.LogOutput)

	g := res.Report.Groups[0]
	assert.Equal(t, executor.Completed, g.States["roll"])
	assert.Equal(t, executor.Completed, g.States["shift"])

	rolled := g.Shared["rolled"].(float64)
	assert.Equal(t, rolled+5.0, g.Shared["shifted"])
}

func TestHCLPositionalChaining(t *testing.T) {
	trace := &traceModule{}
	res := testutil.RunDefinition(t, "net.hcl", `
operator "trace" "mark" {
  id     = "first"
  params = { label = "first" }
}

operator "trace" "mark" {
  id     = "second"
  params = { label = "second" }
}
`, trace)
	require.NoError(t, res.Err)
	require.False(t, res.Failed(), res.LogOutput)

	assert.Equal(t, []string{"first", "second"}, trace.calls())
}
