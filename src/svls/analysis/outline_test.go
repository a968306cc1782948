package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDocumentSymbolsListsModuleAndInstance(t *testing.T) {
	a, _ := buildAnalysis(t,
		"module top();\n  foo u0 (.clk(sig));\n  logic w;\nendmodule\n",
		"module foo(input clk);\nendmodule\n",
	)
	defer a.Release()

	syms := a.GetDocumentSymbols(false)
	require.Len(t, syms, 1)
	mod := syms[0]
	assert.Equal(t, "top", mod.Name)
	assert.Equal(t, OutlineModule, mod.Kind)

	var sawInstance, sawVariable bool
	for _, c := range mod.Children {
		if c.Kind == OutlineObject && c.Name == "u0" {
			sawInstance = true
			assert.Equal(t, "foo", c.Detail)
		}
		if c.Kind == OutlineVariable && c.Name == "w" {
			sawVariable = true
		}
	}
	assert.True(t, sawInstance, "expected instance u0 in outline")
	assert.True(t, sawVariable, "expected variable w in outline")
}

func TestGetDocumentSymbolsIncludesMacrosWhenRequested(t *testing.T) {
	a, _ := buildAnalysis(t, "`define WIDTH 8\nmodule top(); endmodule\n", "")
	defer a.Release()

	without := a.GetDocumentSymbols(false)
	for _, s := range without {
		assert.NotEqual(t, OutlineConstant, s.Kind)
	}

	with := a.GetDocumentSymbols(true)
	var found bool
	for _, s := range with {
		if s.Kind == OutlineConstant && s.Name == "WIDTH" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGetDocumentLinksFindsIncludeDirective(t *testing.T) {
	a, _ := buildAnalysis(t, "`include \"defs.svh\"\nmodule top(); endmodule\n", "")
	defer a.Release()

	links := a.GetDocumentLinks()
	require.Len(t, links, 1)
	assert.Equal(t, "defs.svh", links[0].Target)
}
