package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svls-core/src/svls/analysis/inlay"
	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/sourcemgr"
	"github.com/svlsp/svls-core/src/svls/svparser"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// stubDep adapts a pre-parsed tree to DependentDoc for tests.
type stubDep struct{ tree *svsyntax.SyntaxTree }

func (d stubDep) SyntaxTree() (*svsyntax.SyntaxTree, error) { return d.tree, nil }

type stubDriver struct {
	sm   *sourcemgr.Manager
	deps []DependentDoc
}

func (d *stubDriver) DependentDocs(*svsyntax.SyntaxTree) []DependentDoc { return d.deps }
func (d *stubDriver) SourceManager() *sourcemgr.Manager                 { return d.sm }
func (d *stubDriver) Options() Options                                  { return nil }

func buildAnalysis(t *testing.T, primarySrc, depSrc string) (*ShallowAnalysis, *svsyntax.SyntaxTree) {
	t.Helper()
	sm := sourcemgr.New()
	primaryID := sm.AssignText("top.sv", []byte(primarySrc))
	primaryTree := svparser.Parse(primaryID, primarySrc)

	var deps []DependentDoc
	if depSrc != "" {
		depID := sm.AssignText("foo.sv", []byte(depSrc))
		deps = append(deps, stubDep{tree: svparser.Parse(depID, depSrc)})
	}

	drv := &stubDriver{sm: sm, deps: deps}
	a, err := New(drv, primaryTree)
	require.NoError(t, err)
	return a, primaryTree
}

func TestShallowAnalysisResolvesInstanceTypeToken(t *testing.T) {
	a, primary := buildAnalysis(t,
		"module top();\n  foo u0 (.clk(sig));\nendmodule\n",
		"module foo(input clk);\nendmodule\n",
	)
	defer a.Release()

	inst := primary.Root.Children[0].Children[0]
	sym, ok := a.GetSymbolAtToken(inst.Name)
	require.True(t, ok)
	assert.Equal(t, entity.SymbolModule, sym.Kind)
	assert.Equal(t, "foo", sym.Name)
}

func TestShallowAnalysisHasValidBuffersTracksReplacement(t *testing.T) {
	a, _ := buildAnalysis(t, "module top();\n  logic w;\nendmodule\n", "")
	defer a.Release()
	assert.True(t, a.HasValidBuffers())
}

func TestShallowAnalysisGetScopeAtResolvesLocalVariable(t *testing.T) {
	a, primary := buildAnalysis(t, "module top();\n  logic w;\nendmodule\n", "")
	defer a.Release()

	wNode := primary.Root.Children[0].Children[0].Children[0]
	scope := a.GetScopeAt(wNode.Name.Range.Start)
	require.NotNil(t, scope)
	assert.NotNil(t, scope.Find("w"))
}

func TestAddLocalReferencesFindsAllUsesOfAnInstanceName(t *testing.T) {
	a, primary := buildAnalysis(t,
		"module top();\n  foo u0 (.clk(sig));\nendmodule\n",
		"module foo(input clk);\nendmodule\n",
	)
	defer a.Release()

	instName := primary.Root.Children[0].Children[0].Children[0]
	var out []entity.SourceRange
	a.AddLocalReferences(&out, instName.Name.Range.Start, "u0")
	assert.Len(t, out, 1)
}

func TestGetInlayHintsLabelsNamedPortConnectionWithItsType(t *testing.T) {
	a, primary := buildAnalysis(t,
		"module top();\n  foo u0 (.clk(sig));\nendmodule\n",
		"module foo(input clk);\nendmodule\n",
	)
	defer a.Release()

	end := primary.Root.Range.End.Offset
	hints := a.GetInlayHints(0, end, inlay.Config{PortTypes: true})
	require.Len(t, hints, 1)
	assert.Equal(t, "logic clk", hints[0].Label)
}

func TestGetInlayHintsOmittedWhenPortTypesDisabled(t *testing.T) {
	a, primary := buildAnalysis(t,
		"module top();\n  foo u0 (.clk(sig));\nendmodule\n",
		"module foo(input clk);\nendmodule\n",
	)
	defer a.Release()

	end := primary.Root.Range.End.Offset
	hints := a.GetInlayHints(0, end, inlay.Config{})
	assert.Empty(t, hints)
}

// findKind returns the first descendant of n (including n) with the given
// kind, depth-first, searching Children then Extra.
func findKind(n *svsyntax.Node, kind svsyntax.NodeKind) *svsyntax.Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := findKind(c, kind); found != nil {
			return found
		}
	}
	for _, nodes := range n.Extra {
		for _, c := range nodes {
			if found := findKind(c, kind); found != nil {
				return found
			}
		}
	}
	return nil
}

func TestShallowAnalysisResolvesSelectorChainThroughPackageStructMember(t *testing.T) {
	dep := "package pkg;\n" +
		"  typedef struct { int b; } item_t;\n" +
		"  typedef struct { item_t a; } pkt_t;\n" +
		"  pkt_t s;\n" +
		"endpackage\n"
	primarySrc := "module top();\n" +
		"  pkg::s.a[0].b;\n" +
		"endmodule\n"

	a, primary := buildAnalysis(t, primarySrc, dep)
	defer a.Release()

	outerMember := findKind(primary.Root.Children[0], svsyntax.NodeMemberAccess)
	require.NotNil(t, outerMember)
	require.NotNil(t, outerMember.Name)
	require.Equal(t, "b", outerMember.Name.Raw)

	sym, ok := a.GetSymbolAtToken(outerMember.Name)
	require.True(t, ok)
	assert.Equal(t, entity.SymbolStructMember, sym.Kind)
	assert.Equal(t, "b", sym.Name)
}

func TestShallowAnalysisReparsesMacroArgumentToResolveMemberAccess(t *testing.T) {
	primarySrc := "`define M(a) a\n" +
		"module top();\n" +
		"  typedef struct { int y; } item_t;\n" +
		"  item_t x;\n" +
		"  `M(x.y);\n" +
		"endmodule\n"

	a, primary := buildAnalysis(t, primarySrc, "")
	defer a.Release()

	mod := primary.Root.Children[1]
	var usage *svsyntax.Node
	for _, c := range mod.Children {
		if c.Kind == svsyntax.NodeMacroUsage {
			usage = c
		}
	}
	require.NotNil(t, usage)
	args := usage.Extra["arguments"]
	require.Len(t, args, 1)
	require.Len(t, args[0].Tokens, 3) // x . y
	yTok := args[0].Tokens[2]
	assert.Equal(t, "y", yTok.Raw)

	sym, ok := a.GetSymbolAtToken(yTok)
	require.True(t, ok)
	assert.Equal(t, entity.SymbolStructMember, sym.Kind)
	assert.Equal(t, "y", sym.Name)
}

func TestShallowAnalysisResolvesPackageImportMember(t *testing.T) {
	dep := "package pkg;\n  parameter int W = 8;\nendpackage\n"
	primarySrc := "module top();\n  import pkg::W;\nendmodule\n"

	a, primary := buildAnalysis(t, primarySrc, dep)
	defer a.Release()

	importItem := primary.Root.Children[0].Children[0]
	require.Equal(t, svsyntax.NodePackageImportItem, importItem.Kind)
	require.NotNil(t, importItem.Name)
	require.Len(t, importItem.Tokens, 2)

	pkgSym, ok := a.GetSymbolAtToken(importItem.Name)
	require.True(t, ok)
	assert.Equal(t, entity.SymbolPackage, pkgSym.Kind)
	assert.Equal(t, "pkg", pkgSym.Name)

	memberTok := importItem.Tokens[1]
	assert.Equal(t, "W", memberTok.Raw)
	memberSym, ok := a.GetSymbolAtToken(memberTok)
	require.True(t, ok)
	assert.Equal(t, entity.SymbolParameter, memberSym.Kind)
	assert.Equal(t, "W", memberSym.Name)
}

func TestGetInlayHintsLabelsInvocationArgumentWithParameterName(t *testing.T) {
	a, primary := buildAnalysis(t,
		"module top();\n  function void do_thing(int a, int b); endfunction\n  do_thing(1, 2);\nendmodule\n",
		"",
	)
	defer a.Release()

	end := primary.Root.Range.End.Offset
	hints := a.GetInlayHints(0, end, inlay.Config{FuncArgNames: 1})
	require.Len(t, hints, 2)
	assert.Equal(t, "a:", hints[0].Label)
	assert.Equal(t, "b:", hints[1].Label)
}

func TestShallowAnalysisResolvesInterfacePortModportToInterfaceDefinition(t *testing.T) {
	a, primary := buildAnalysis(t,
		"module top(bus.mp p);\nendmodule\n",
		"interface bus;\nendinterface\n",
	)
	defer a.Release()

	mod := primary.Root.Children[0]
	ports := mod.Extra["ports"]
	require.Len(t, ports, 1)
	clause := ports[0].Extra["interfacePort"][0]
	require.Equal(t, svsyntax.NodeDotMemberClause, clause.Kind)
	require.Len(t, clause.Tokens, 3)

	ifaceSym, ok := a.GetSymbolAtToken(clause.Tokens[0])
	require.True(t, ok)
	assert.Equal(t, entity.SymbolInterface, ifaceSym.Kind)
	assert.Equal(t, "bus", ifaceSym.Name)

	// "mp" names no modport declared in this shallow compilation, so
	// resolution falls back to the interface definition itself.
	modportSym, ok := a.GetSymbolAtToken(clause.Tokens[2])
	require.True(t, ok)
	assert.Equal(t, entity.SymbolInterface, modportSym.Kind)
	assert.Equal(t, "bus", modportSym.Name)
}

func TestGetInlayHintsLabelsParameterizedClassArgumentWithParameterName(t *testing.T) {
	a, primary := buildAnalysis(t,
		"module top();\n  class Queue #(int DEPTH); endclass\n  Queue #(8) q;\nendmodule\n",
		"",
	)
	defer a.Release()

	end := primary.Root.Range.End.Offset
	hints := a.GetInlayHints(0, end, inlay.Config{FuncArgNames: 1})
	require.Len(t, hints, 1)
	assert.Equal(t, "DEPTH:", hints[0].Label)
}
