// Package svsyntax defines the concrete syntax model (Node, SyntaxTree) and
// the Syntax Indexer that builds fast lookup structures over a parsed
// SyntaxTree: tokensInOrder, tokenToParent, and hintCandidates.
package svsyntax

import "github.com/svlsp/svls-core/src/svls/entity"

// NodeKind is the closed set of syntax-node shapes the indexer and the
// inlay collector dispatch on. Like entity.SymbolKind, this is one struct
// with a Kind field rather than a type per grammar production: the
// indexer, getSymbolAtToken, and the inlay collector all already need a
// flat switch over "what kind of node is this" and a type hierarchy would
// just relocate that switch into an interface's reflection.
type NodeKind int

const (
	NodeUnknown NodeKind = iota
	NodeCompilationUnit
	NodeModuleDeclaration
	NodeInterfaceDeclaration
	NodeProgramDeclaration
	NodePackageDeclaration
	NodeClassDeclaration
	NodeHierarchyInstantiation
	NodeInstanceName
	NodePortDeclaration
	NodeOrderedPortConnection
	NodeNamedPortConnection
	NodeWildcardPortConnection
	NodeParameterDeclaration
	NodeParameterValueAssignment
	NodeDataDeclaration
	NodeNetDeclaration
	NodeFunctionDeclaration
	NodeTaskDeclaration
	NodeInvocationExpression
	NodeMacroUsage
	NodeDefineDirective
	NodeIncludeDirective
	NodePackageImportItem
	NodePackageExportItem
	NodeGenerateBlock
	NodeGenerateForLoop
	NodeEnumDeclaration
	NodeStructDeclaration
	NodeTypedefDeclaration
	NodeClassName
	NodeIdentifierName
	NodeScopedName   // a::b
	NodeMemberAccess // a.b
	NodeIndexSelector
	NodeExpressionStatement
	NodeDotMemberClause // InterfaceName.modportName, an interface-port header
)

// String returns a human-readable name for diagnostics and tests.
func (k NodeKind) String() string {
	names := map[NodeKind]string{
		NodeCompilationUnit:           "CompilationUnit",
		NodeModuleDeclaration:         "ModuleDeclaration",
		NodeInterfaceDeclaration:      "InterfaceDeclaration",
		NodeProgramDeclaration:        "ProgramDeclaration",
		NodePackageDeclaration:        "PackageDeclaration",
		NodeClassDeclaration:          "ClassDeclaration",
		NodeHierarchyInstantiation:    "HierarchyInstantiation",
		NodeInstanceName:              "InstanceName",
		NodePortDeclaration:           "PortDeclaration",
		NodeOrderedPortConnection:     "OrderedPortConnection",
		NodeNamedPortConnection:       "NamedPortConnection",
		NodeWildcardPortConnection:    "WildcardPortConnection",
		NodeParameterDeclaration:      "ParameterDeclaration",
		NodeParameterValueAssignment:  "ParameterValueAssignment",
		NodeDataDeclaration:           "DataDeclaration",
		NodeNetDeclaration:            "NetDeclaration",
		NodeFunctionDeclaration:       "FunctionDeclaration",
		NodeTaskDeclaration:           "TaskDeclaration",
		NodeInvocationExpression:      "InvocationExpression",
		NodeMacroUsage:                "MacroUsage",
		NodeDefineDirective:           "DefineDirective",
		NodeIncludeDirective:          "IncludeDirective",
		NodePackageImportItem:         "PackageImportItem",
		NodePackageExportItem:         "PackageExportItem",
		NodeGenerateBlock:             "GenerateBlock",
		NodeGenerateForLoop:           "GenerateForLoop",
		NodeEnumDeclaration:           "EnumDeclaration",
		NodeStructDeclaration:         "StructDeclaration",
		NodeTypedefDeclaration:        "TypedefDeclaration",
		NodeClassName:                 "ClassName",
		NodeIdentifierName:            "IdentifierName",
		NodeScopedName:                "ScopedName",
		NodeMemberAccess:              "MemberAccess",
		NodeIndexSelector:             "IndexSelector",
		NodeExpressionStatement:       "ExpressionStatement",
		NodeDotMemberClause:           "DotMemberClause",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "Unknown"
}

// Node is a single syntax-tree node. Parent is a back-pointer patched in
// by the indexer (spec step: "patch parent pointers, including for
// directive trivia that the grammar skips"); it is nil only for the root.
type Node struct {
	Kind  NodeKind
	Range entity.SourceRange

	Parent   *Node
	Children []*Node

	// Name, when set, is the primary identifying token of this node (the
	// module name of a ModuleDeclaration, the target name of a
	// HierarchyInstantiation, the macro name of a MacroUsage, ...).
	Name *entity.Token

	// Tokens holds every non-trivia token directly spanned by this node,
	// in source order. Leaf nodes (IdentifierName, ClassName) have exactly
	// one.
	Tokens []*entity.Token

	// Extra holds named sub-references that don't fit Children's plain
	// list shape: a HierarchyInstantiation's port-connection list, a
	// MacroUsage's argument nodes, a GenerateForLoop's iteration variable
	// name. Keyed by a short, stable label documented next to the kind
	// that uses it.
	Extra map[string][]*Node
}

// Walk calls fn for n and every descendant reachable through Children,
// pre-order; nodes held only in Extra are not visited. fn may return false
// to skip n's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FirstToken returns the earliest token spanned by n, searching Children
// if n itself holds none directly.
func (n *Node) FirstToken() *entity.Token {
	if n == nil {
		return nil
	}
	if len(n.Tokens) > 0 {
		return n.Tokens[0]
	}
	for _, c := range n.Children {
		if t := c.FirstToken(); t != nil {
			return t
		}
	}
	return nil
}
