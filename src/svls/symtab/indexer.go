package symtab

import (
	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// Indexer holds the two lookup maps spec.md §4.3 describes: syntaxToSymbol
// (every declaring node, any buffer) and tokenToSymbol (only the
// identifier tokens that live in the buffer being indexed, restricted to
// Primary so cross-file dependency symbols don't pollute a document's own
// token lookups).
type Indexer struct {
	Primary entity.BufferId

	syntaxToSymbol map[*svsyntax.Node]*entity.Symbol
	tokenToSymbol  map[*entity.Token]*entity.Symbol
}

// NewIndexer walks comp's symbol tree (rooted at comp.Root) and builds the
// two maps, restricting tokenToSymbol entries to declarations whose syntax
// lives in buffer primary. Call after Compilation.ResolveInstances.
func NewIndexer(comp *Compilation, primary entity.BufferId) *Indexer {
	ix := &Indexer{
		Primary:        primary,
		syntaxToSymbol: make(map[*svsyntax.Node]*entity.Symbol),
		tokenToSymbol:  make(map[*entity.Token]*entity.Symbol),
	}
	ix.visit(comp, comp.Root, 0)
	return ix
}

// SymbolOf returns the symbol declared by node, if any.
func (ix *Indexer) SymbolOf(node *svsyntax.Node) (*entity.Symbol, bool) {
	s, ok := ix.syntaxToSymbol[node]
	return s, ok
}

// SymbolAtToken returns the symbol declared at tok, if tok is itself a
// declaring identifier (as opposed to a reference — that resolution is
// addressed by the analysis package's name-lookup walk, not here).
func (ix *Indexer) SymbolAtToken(tok *entity.Token) (*entity.Symbol, bool) {
	s, ok := ix.tokenToSymbol[tok]
	return s, ok
}

func (ix *Indexer) indexName(sym *entity.Symbol, node *svsyntax.Node) {
	if node == nil {
		return
	}
	ix.syntaxToSymbol[node] = sym
	if node.Name != nil && node.Name.Range.Start.Buffer == ix.Primary && sym.Name != "" {
		ix.tokenToSymbol[node.Name] = sym
	}
}

// visit applies the general rule plus the specializations from spec.md
// §4.3 to sym (built from the syntax node comp.SyntaxOf(sym), when one
// exists) and recurses into its members.
func (ix *Indexer) visit(comp *Compilation, sym *entity.Symbol, depth int) {
	node := comp.SyntaxOf(sym)

	switch sym.Kind {
	case entity.SymbolRoot, entity.SymbolCompilationUnit:
		// Not declared by any buffer syntax; index nothing, just recurse.

	case entity.SymbolInstance:
		ix.visitInstance(comp, sym, node, depth)
		return // visitInstance handles its own recursion

	case entity.SymbolPackage:
		ix.indexName(sym, node)
		if node != nil && node.Range.Start.Buffer != ix.Primary {
			return // dependency package: name indexed, members left unwalked
		}

	case entity.SymbolTypeAlias:
		ix.indexName(sym, node)
		if sym.AliasOf != nil {
			ix.visit(comp, sym.AliasOf, depth)
		}

	case entity.SymbolTransparentMember:
		if sym.Exported != nil {
			ix.visit(comp, sym.Exported, depth)
		}
		return

	case entity.SymbolEnumValue:
		ix.indexName(sym, node)
		return // leaf: no members to recurse into

	case entity.SymbolTypeParameter:
		ix.indexName(sym, node)
		if sym.AliasOf != nil {
			ix.visit(comp, sym.AliasOf, depth)
		}
		return

	case entity.SymbolGenerateBlock:
		// Only named generate blocks become syntax-indexed entries; an
		// unnamed one was never built as a member in the first place
		// (see Compilation.buildMember), so reaching here means it has a
		// name.
		ix.indexName(sym, node)

	default:
		ix.indexName(sym, node)
	}

	for _, member := range sym.MemberOrder {
		ix.visit(comp, member, depth)
	}
}

// visitInstance implements the InstanceSymbol specialization: the
// instance-name token indexes the instance symbol, the HierarchyInstantiation
// node's module-type token indexes the resolved definition, and named
// port/parameter connections index their corresponding port/parameter
// symbols. Recursion into the instantiated definition's own body only
// happens when that definition's declaring syntax lives in Primary and the
// instance nesting depth is still within MaxInstanceDepth — deeper or
// out-of-buffer bodies are left unexpanded, matching a shallow compilation.
func (ix *Indexer) visitInstance(comp *Compilation, sym *entity.Symbol, instNameNode *svsyntax.Node, depth int) {
	ix.indexName(sym, instNameNode)

	instantiation := comp.InstantiationOf(sym)
	if instantiation != nil {
		ix.syntaxToSymbol[instantiation] = sym
		if instantiation.Name != nil && instantiation.Name.Range.Start.Buffer == ix.Primary && sym.InstanceOf != nil {
			ix.tokenToSymbol[instantiation.Name] = sym.InstanceOf
		}
	}

	if instNameNode != nil {
		for _, conn := range instNameNode.Extra["connections"] {
			if conn.Kind != svsyntax.NodeNamedPortConnection || conn.Name == nil {
				continue
			}
			if port := findPort(sym, conn.Name.Raw); port != nil {
				ix.syntaxToSymbol[conn] = port
				if conn.Name.Range.Start.Buffer == ix.Primary {
					ix.tokenToSymbol[conn.Name] = port
				}
			}
		}
	}
	if instantiation != nil {
		for _, assign := range instantiation.Extra["parameterAssignments"] {
			if assign.Kind != svsyntax.NodeParameterValueAssignment || assign.Name == nil {
				continue
			}
			if param := findParameter(sym, assign.Name.Raw); param != nil {
				ix.syntaxToSymbol[assign] = param
				if assign.Name.Range.Start.Buffer == ix.Primary {
					ix.tokenToSymbol[assign.Name] = param
				}
			}
		}
	}

	def := sym.InstanceOf
	if def == nil {
		return
	}
	defNode := comp.SyntaxOf(def)
	if defNode == nil || defNode.Range.Start.Buffer != ix.Primary {
		return
	}
	if depth+1 >= MaxInstanceDepth {
		return
	}
	for _, member := range def.MemberOrder {
		ix.visit(comp, member, depth+1)
	}
}

func findPort(inst *entity.Symbol, name string) *entity.Symbol {
	if inst.Members == nil {
		return nil
	}
	if m, ok := inst.Members[name]; ok && m.Kind == entity.SymbolPort {
		return m
	}
	return nil
}

func findParameter(inst *entity.Symbol, name string) *entity.Symbol {
	if inst.Members == nil {
		return nil
	}
	if m, ok := inst.Members[name]; ok && m.Kind == entity.SymbolParameter {
		return m
	}
	return nil
}

// ScopeForSyntax walks node's parent chain, per spec.md §4.3's
// scopeForSyntax: the first ancestor with a recorded symbol contributes
// that symbol's own scope if the ancestor IS the declaration (a module
// body looked up from inside itself), otherwise its parent's scope. Nil
// once the walk reaches the root with nothing found.
func (ix *Indexer) ScopeForSyntax(node *svsyntax.Node) *entity.Scope {
	for n := node; n != nil; n = n.Parent {
		sym, ok := ix.syntaxToSymbol[n]
		if !ok {
			continue
		}
		if sym.Kind.IsScoping() {
			return sym.Scope()
		}
		if sym.Parent != nil {
			return sym.Parent.Scope()
		}
		return nil
	}
	return nil
}
