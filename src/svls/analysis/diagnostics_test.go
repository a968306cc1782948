package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnoseFlagsUnresolvedInstanceType(t *testing.T) {
	a, _ := buildAnalysis(t, "module top();\n  missing u0();\nendmodule\n", "")
	defer a.Release()

	diags := a.Diagnose()
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUnresolvedInstance, diags[0].Code)
}

func TestDiagnoseIsSilentWhenInstanceResolves(t *testing.T) {
	a, _ := buildAnalysis(t,
		"module top();\n  foo u0 (.clk(sig));\nendmodule\n",
		"module foo(input clk);\nendmodule\n",
	)
	defer a.Release()

	diags := a.Diagnose()
	assert.Empty(t, diags)
}
