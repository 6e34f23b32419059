package integrationtests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opnet/internal/executor"
	"opnet/internal/testutil"
	"opnet/modules/addint"
)

// The classic fan-in shape: two roots feed a join, the join feeds a
// repeated tail operator.
const fanInYAML = `
name: fan-in
shared_data:
  step: 1
operators:
  - id: a
    operator: trace.mark
    run_after: none
    input_params: { label: a }
  - id: b
    operator: trace.mark
    run_after: none
    input_params: { label: b }
  - id: d
    operator: trace.mark
    run_after: [a, b]
    input_params: { label: d }
  - id: f
    operator: addint.add
    run_after: d
    input_params: { a: 0 }
    shared_input_params:
      step: b
    save_output: true
    shared_output_name: f_out
    repeat: 3
`

func TestFanInNetwork(t *testing.T) {
	trace := &traceModule{}
	res := testutil.RunDefinition(t, "net.yaml", fanInYAML, trace, &addint.Module{})
	require.NoError(t, res.Err)
	require.False(t, res.Failed(), res.LogOutput)

	// d runs strictly after both roots.
	require.ElementsMatch(t, []string{"a", "b", "d"}, trace.calls())
	assert.Greater(t, trace.indexOf("d"), trace.indexOf("a"))
	assert.Greater(t, trace.indexOf("d"), trace.indexOf("b"))

	// The repeated tail resolved its binding once and kept the value.
	g := res.Report.Groups[0]
	assert.Equal(t, 1.0, g.Shared["f_out"])
	assert.Equal(t, executor.Completed, g.States["f"])
}

func TestFailureBlocksOnlyTheDependentBranch(t *testing.T) {
	trace := &traceModule{}
	res := testutil.RunDefinition(t, "net.yaml", `
name: partial-failure
operators:
  - id: broken
    operator: trace.fail
    run_after: none
  - id: downstream
    operator: trace.mark
    run_after: broken
    input_params: { label: downstream }
  - id: independent
    operator: trace.mark
    run_after: none
    input_params: { label: independent }
`, trace)
	require.NoError(t, res.Err)
	assert.True(t, res.Failed())

	g := res.Report.Groups[0]
	assert.Equal(t, executor.Failed, g.States["broken"])
	assert.Equal(t, executor.Completed, g.States["independent"])
	assert.Equal(t, []string{"downstream"}, g.Blocked)
	assert.Equal(t, []string{"independent"}, trace.calls())
	assert.Contains(t, res.LogOutput, "Operator failed")
}

func TestRepeatGroupsReseedTheStore(t *testing.T) {
	res := testutil.RunDefinition(t, "net.yaml", `
name: groups
repeat_groups: 3
shared_data:
  base: 10
operators:
  - id: add
    operator: addint.add
    input_params: { b: 1 }
    shared_input_params:
      base: a
    save_output: true
    shared_output_name: base
`, &addint.Module{})
	require.NoError(t, res.Err)
	require.Len(t, res.Report.Groups, 3)

	for _, g := range res.Report.Groups {
		assert.Equal(t, 11.0, g.Shared["base"], "group %d", g.Group)
	}
}

func TestTransitionsAreEmittedPerOperator(t *testing.T) {
	trace := &traceModule{}
	res := testutil.RunDefinition(t, "net.yaml", `
name: events
operators:
  - id: only
    operator: trace.mark
    input_params: { label: only }
`, trace)
	require.NoError(t, res.Err)

	var seq []string
	for _, tr := range res.Transitions {
		require.Equal(t, "only", tr.OperatorID)
		require.Equal(t, 1, tr.Group)
		seq = append(seq, tr.To)
	}
	assert.Equal(t, []string{"ready", "running", "completed"}, seq)
}
