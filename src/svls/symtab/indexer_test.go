package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svparser"
)

func TestCompilationResolvesInstanceToDefinition(t *testing.T) {
	top := svparser.Parse(entity.BufferId(1), "module top();\n  foo u0 (.clk(sig));\nendmodule\n")
	leaf := svparser.Parse(entity.BufferId(2), "module foo(input clk);\nendmodule\n")

	comp := NewCompilation()
	comp.AddTree(top)
	comp.AddTree(leaf)
	comp.ResolveInstances()

	def, ok := comp.Definitions["foo"]
	require.True(t, ok)
	assert.Equal(t, entity.SymbolModule, def.Kind)

	ix := NewIndexer(comp, entity.BufferId(1))

	topMod := comp.Definitions["top"]
	require.NotNil(t, topMod)
	inst, ok := topMod.Members["u0"]
	require.True(t, ok)
	assert.Equal(t, entity.SymbolInstance, inst.Kind)
	assert.Same(t, def, inst.InstanceOf)

	instNameNode := comp.SyntaxOf(inst)
	require.NotNil(t, instNameNode)
	require.NotNil(t, instNameNode.Name)
	sym, ok := ix.SymbolAtToken(instNameNode.Name)
	require.True(t, ok)
	assert.Same(t, inst, sym)

	instantiation := comp.InstantiationOf(inst)
	require.NotNil(t, instantiation)
	require.NotNil(t, instantiation.Name)
	typeSym, ok := ix.SymbolAtToken(instantiation.Name)
	require.True(t, ok)
	assert.Same(t, def, typeSym)
}

func TestIndexerIndexesNamedPortConnectionToPortSymbol(t *testing.T) {
	top := svparser.Parse(entity.BufferId(1), "module top();\n  foo u0 (.clk(sig));\nendmodule\n")
	leaf := svparser.Parse(entity.BufferId(2), "module foo(input clk);\nendmodule\n")

	comp := NewCompilation()
	comp.AddTree(top)
	comp.AddTree(leaf)
	comp.ResolveInstances()
	ix := NewIndexer(comp, entity.BufferId(1))

	inst := comp.Definitions["top"].Members["u0"]
	instNameNode := comp.SyntaxOf(inst)
	conn := instNameNode.Extra["connections"][0]
	require.NotNil(t, conn.Name)

	sym, ok := ix.SymbolAtToken(conn.Name)
	require.True(t, ok)
	assert.Equal(t, entity.SymbolPort, sym.Kind)
	assert.Equal(t, "clk", sym.Name)
}

func TestIndexerRestrictsTokenIndexToPrimaryBuffer(t *testing.T) {
	top := svparser.Parse(entity.BufferId(1), "module top();\n  foo u0 ();\nendmodule\n")
	leaf := svparser.Parse(entity.BufferId(2), "module foo();\n  logic w;\nendmodule\n")

	comp := NewCompilation()
	comp.AddTree(top)
	comp.AddTree(leaf)
	comp.ResolveInstances()
	ix := NewIndexer(comp, entity.BufferId(1))

	def := comp.Definitions["foo"]
	w, ok := def.Members["w"]
	require.True(t, ok)
	wNode := comp.SyntaxOf(w)
	require.NotNil(t, wNode)
	require.NotNil(t, wNode.Name)

	_, indexed := ix.SymbolOf(wNode)
	assert.True(t, indexed, "syntaxToSymbol records every declaration regardless of buffer")
	_, tokenIndexed := ix.SymbolAtToken(wNode.Name)
	assert.False(t, tokenIndexed, "tokenToSymbol is restricted to the primary buffer")
}

func TestScopeForSyntaxResolvesToEnclosingModule(t *testing.T) {
	top := svparser.Parse(entity.BufferId(1), "module top();\n  logic w;\nendmodule\n")
	comp := NewCompilation()
	comp.AddTree(top)
	comp.ResolveInstances()
	ix := NewIndexer(comp, entity.BufferId(1))

	mod := comp.Definitions["top"]
	modNode := comp.SyntaxOf(mod)
	wNode := modNode.Children[0].Children[0]

	scope := ix.ScopeForSyntax(wNode)
	require.NotNil(t, scope)
	assert.Same(t, mod, scope.Owner)
	assert.Same(t, mod.Members["w"], scope.Find("w"))
}

func TestEnumValuesAreIndexedDirectly(t *testing.T) {
	top := svparser.Parse(entity.BufferId(1), "module top();\n  typedef enum {RED, GREEN} color_t;\nendmodule\n")
	comp := NewCompilation()
	comp.AddTree(top)
	comp.ResolveInstances()
	ix := NewIndexer(comp, entity.BufferId(1))

	mod := comp.Definitions["top"]
	enumType, ok := mod.Members["color_t"]
	require.True(t, ok)
	assert.Equal(t, entity.SymbolEnumType, enumType.Kind)
	red, ok := enumType.Members["RED"]
	require.True(t, ok)
	redNode := comp.SyntaxOf(red)
	sym, indexed := ix.SymbolAtToken(redNode.Name)
	require.True(t, indexed)
	assert.Same(t, red, sym)
}
