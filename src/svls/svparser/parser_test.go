package svparser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

func timeoutAfter() <-chan time.Time {
	return time.After(2 * time.Second)
}

func TestParseEmptyModule(t *testing.T) {
	tree := Parse(1, "module foo(); endmodule\n")
	require.NotNil(t, tree.Root)
	require.Len(t, tree.Root.Children, 1)
	mod := tree.Root.Children[0]
	assert.Equal(t, svsyntax.NodeModuleDeclaration, mod.Kind)
	require.NotNil(t, mod.Name)
	assert.Equal(t, "foo", mod.Name.Raw)
}

func TestParseHierarchyInstantiation(t *testing.T) {
	src := "module top();\n  foo u0 (.clk(sig), .rst(rst_n));\nendmodule\n"
	tree := Parse(1, src)
	mod := tree.Root.Children[0]
	require.Len(t, mod.Children, 1)
	inst := mod.Children[0]
	assert.Equal(t, svsyntax.NodeHierarchyInstantiation, inst.Kind)
	assert.Equal(t, "foo", inst.Name.Raw)
	require.Len(t, inst.Children, 1)
	assert.Equal(t, "u0", inst.Children[0].Name.Raw)
	conns := inst.Children[0].Extra["connections"]
	require.Len(t, conns, 2)
	assert.Equal(t, svsyntax.NodeNamedPortConnection, conns[0].Kind)
	assert.Equal(t, "clk", conns[0].Name.Raw)
}

func TestParseOrderedParamAssignment(t *testing.T) {
	src := "module top();\n  bar #(8) u0 ();\nendmodule\n"
	tree := Parse(1, src)
	inst := tree.Root.Children[0].Children[0]
	assigns := inst.Extra["parameterAssignments"]
	require.Len(t, assigns, 1)
	assert.Equal(t, svsyntax.NodeParameterValueAssignment, assigns[0].Kind)
}

func TestParseDefineDirective(t *testing.T) {
	src := "`define WIDTH 8\nmodule foo(); endmodule\n"
	tree := Parse(1, src)
	require.Len(t, tree.Macros, 1)
	assert.Equal(t, "WIDTH", tree.Macros[0].Name.Raw)
}

func TestParseMacroUsageWithArgs(t *testing.T) {
	src := "module foo();\n  `MY_MACRO(a, b);\nendmodule\n"
	tree := Parse(1, src)
	mod := tree.Root.Children[0]
	require.Len(t, mod.Children, 1)
	usage := mod.Children[0]
	assert.Equal(t, svsyntax.NodeMacroUsage, usage.Kind)
	assert.Equal(t, "MY_MACRO", usage.Name.Value)
	require.Len(t, usage.Extra["arguments"], 2)
}

func TestParsePackageDeclaration(t *testing.T) {
	src := "package pkg;\n  parameter int W = 8;\nendpackage\n"
	tree := Parse(1, src)
	require.Len(t, tree.Root.Children, 1)
	pkg := tree.Root.Children[0]
	assert.Equal(t, svsyntax.NodePackageDeclaration, pkg.Kind)
	assert.Equal(t, "pkg", pkg.Name.Raw)
}

func TestParseIncludeDirective(t *testing.T) {
	src := "`include \"pkg_foo.sv\"\nmodule foo(); endmodule\n"
	tree := Parse(1, src)
	require.Len(t, tree.Root.Children, 2)
	inc := tree.Root.Children[0]
	assert.Equal(t, svsyntax.NodeIncludeDirective, inc.Kind)
	assert.Equal(t, "pkg_foo.sv", inc.Name.Value)
}

func TestParserNeverGetsStuck(t *testing.T) {
	// Deliberately malformed input; the parser must still terminate.
	src := "module ((( garbage !!! @@@ endmodule"
	done := make(chan struct{})
	go func() {
		Parse(entity.BufferId(1), src)
		close(done)
	}()
	select {
	case <-done:
	case <-timeoutAfter():
		t.Fatal("parser did not terminate on malformed input")
	}
}
