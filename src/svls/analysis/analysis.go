package analysis

import (
	"strings"

	"github.com/svlsp/svls-core/src/svls/analysis/inlay"
	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/sourcemgr"
	"github.com/svlsp/svls-core/src/svls/svparser"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
	"github.com/svlsp/svls-core/src/svls/symtab"
)

// ShallowAnalysis binds one primary SyntaxTree to a Compilation built from
// it and its dependency set, per spec.md §4.4.1's six construction steps.
// It is built once by a Document, queried many times, and discarded (its
// RetentionGuard released) when the Document invalidates it.
type ShallowAnalysis struct {
	driver Driver
	sm     *sourcemgr.Manager

	primary *svsyntax.SyntaxTree
	deps    []*svsyntax.SyntaxTree

	index *svsyntax.Index
	comp  *symtab.Compilation
	sym   *symtab.Indexer

	macros map[string]*svsyntax.Node

	guard     *sourcemgr.RetentionGuard
	bufferIDs []entity.BufferId
}

// New runs the six construction steps over primary, fetching the
// dependency tree set from driver. Buffer retention happens last, so a
// construction failure never leaves a dangling guard.
func New(driver Driver, primary *svsyntax.SyntaxTree) (*ShallowAnalysis, error) {
	a := &ShallowAnalysis{
		driver:  driver,
		sm:      driver.SourceManager(),
		primary: primary,
		macros:  make(map[string]*svsyntax.Node),
	}

	// Step 1: Syntax Indexer over the primary tree.
	a.index = svsyntax.NewIndex(primary)

	// Step 2: record macros by name.
	for _, m := range primary.Macros {
		if m.Name != nil {
			a.macros[m.Name.Raw] = m
		}
	}

	// Step 3: elaborator flags are the external parser/elaborator's
	// concern (spec.md §6); this shallow compilation has no such knob to
	// configure, so this step is a no-op here by design.

	// Step 4: build the Compilation over T and every tree in D.
	deps := driver.DependentDocs(primary)
	depTrees := make([]*svsyntax.SyntaxTree, 0, len(deps))
	for _, d := range deps {
		tree, err := d.SyntaxTree()
		if err != nil {
			return nil, err
		}
		depTrees = append(depTrees, tree)
	}
	a.deps = depTrees

	a.comp = symtab.NewCompilation()
	a.comp.AddTree(primary)
	for _, t := range depTrees {
		a.comp.AddTree(t)
	}
	a.comp.ResolveInstances()
	a.comp.ResolveTypes()

	// Step 5: run the Symbol Indexer over the compilation.
	a.sym = symtab.NewIndexer(a.comp, primary.Buffer)

	// Step 6: retain every reachable buffer id.
	a.bufferIDs = reachableBuffers(primary, depTrees)
	a.guard = a.sm.RetainBuffers(a.bufferIDs)

	return a, nil
}

func reachableBuffers(primary *svsyntax.SyntaxTree, deps []*svsyntax.SyntaxTree) []entity.BufferId {
	seen := map[entity.BufferId]bool{primary.Buffer: true}
	ids := []entity.BufferId{primary.Buffer}
	for _, d := range deps {
		if !seen[d.Buffer] {
			seen[d.Buffer] = true
			ids = append(ids, d.Buffer)
		}
	}
	return ids
}

// Release drops this analysis's hold on its buffers. Safe to call once,
// from the Document that owns this analysis, when discarding it.
func (a *ShallowAnalysis) Release() {
	a.guard.Release()
}

// HasValidBuffers reports whether every buffer this analysis was built
// from is still the Source Manager's current content for its path.
func (a *ShallowAnalysis) HasValidBuffers() bool {
	for _, id := range a.bufferIDs {
		if !a.sm.IsValid(id) {
			return false
		}
	}
	return true
}

// GetSymbolAtToken is the central lookup of spec.md §4.4.2: ParentOf, the
// indexed-symbol fast path, the macro-argument reparse, the package
// import/export member rule, the selector walk over a scoped/member/index
// name chain, and the step-7 fallbacks (DotMemberClause interface-port,
// tryGetDefinition, getPackage). Step 5's InstanceBody/Port normalization
// does not apply here: Compilation merges InstanceBody into Instance, and
// the Symbol Indexer already cross-annotates a HierarchyInstantiation's
// module-type token directly to the resolved Definition (see
// symtab.Indexer.visitInstance), so an indexed-symbol hit is already the
// right answer without a second normalization pass.
func (a *ShallowAnalysis) GetSymbolAtToken(tok *entity.Token) (*entity.Symbol, bool) {
	if tok == nil {
		return nil, false
	}
	syntax := a.index.ParentOf(tok)
	if syntax == nil {
		return nil, false
	}

	if reSyntax, reTok, ok := a.reparseMacroArgument(syntax, tok); ok {
		syntax, tok = reSyntax, reTok
	}

	if syntax.Kind == svsyntax.NodePackageImportItem || syntax.Kind == svsyntax.NodePackageExportItem {
		if tok == syntax.Name {
			if pkg := a.comp.GetPackage(tok.Raw); pkg != nil {
				return pkg, true
			}
		} else if syntax.Name != nil {
			if pkg := a.comp.GetPackage(syntax.Name.Raw); pkg != nil {
				if member := pkg.Scope().FindLocal(tok.Raw); member != nil {
					return member, true
				}
			}
		}
	}

	if sym, ok := a.sym.SymbolAtToken(tok); ok {
		return sym, true
	}

	scope := a.sym.ScopeForSyntax(syntax)
	if scope == nil {
		scope = a.comp.Root.Scope()
	}

	if tok.Kind == entity.TokenIdentifier {
		if sym, ok := a.resolveByNameLookup(tok, syntax, scope); ok {
			return sym, true
		}
	}

	if syntax.Kind == svsyntax.NodeDotMemberClause {
		if sym, ok := a.resolveDotMemberClause(syntax, tok); ok {
			return sym, true
		}
	}

	if tok.Kind == entity.TokenIdentifier {
		if def := a.comp.TryGetDefinition(tok.Raw, scope); def != nil {
			return def, true
		}
		if pkg := a.comp.GetPackage(tok.Raw); pkg != nil {
			return pkg, true
		}
	}

	return nil, false
}

// reparseMacroArgument implements spec.md §4.4.2 step 3: a macro actual
// argument is spliced out of its buffer's raw text and reparsed into a
// short-lived tree, so a name written inside a macro invocation (e.g.
// `` `M(x.y) ``) resolves the same way any other expression does. The
// reparsed tree's root is reparented onto the argument's own parent (spec.md
// §9's "temporary reparses" note) so ScopeForSyntax keeps walking into the
// real tree once it reaches the splice boundary. Nothing from the reparse
// is retained past this call.
func (a *ShallowAnalysis) reparseMacroArgument(syntax *svsyntax.Node, tok *entity.Token) (*svsyntax.Node, *entity.Token, bool) {
	if syntax.Kind != svsyntax.NodeIdentifierName || syntax.Parent == nil || syntax.Parent.Kind != svsyntax.NodeMacroUsage {
		return nil, nil, false
	}
	if len(syntax.Tokens) == 0 {
		return nil, nil, false
	}
	argStart := syntax.Tokens[0].Range.Start.Offset
	argEnd := syntax.Tokens[len(syntax.Tokens)-1].Range.End.Offset
	buffer := syntax.Tokens[0].Range.Start.Buffer
	text, err := a.sm.Text(buffer)
	if err != nil || argStart < 0 || argEnd > len(text) || argStart > argEnd {
		return nil, nil, false
	}
	padded := strings.Repeat(" ", argStart) + string(text[argStart:argEnd])
	tempTree := svparser.Parse(buffer, padded)
	tempTree.Root.Parent = syntax.Parent
	node, newTok := findNodeAndTokenByOffset(tempTree.Root, tok.Range.Start.Offset)
	if node == nil || newTok == nil {
		return nil, nil, false
	}
	return node, newTok, true
}

// findNodeAndTokenByOffset recursively searches n's Tokens, Children, and
// Extra for the token starting at offset, returning the node that owns it
// directly alongside the token itself.
func findNodeAndTokenByOffset(n *svsyntax.Node, offset int) (*svsyntax.Node, *entity.Token) {
	if n == nil {
		return nil, nil
	}
	for _, t := range n.Tokens {
		if t.Range.Start.Offset == offset {
			return n, t
		}
	}
	for _, c := range n.Children {
		if node, t := findNodeAndTokenByOffset(c, offset); node != nil {
			return node, t
		}
	}
	for _, nodes := range n.Extra {
		for _, c := range nodes {
			if node, t := findNodeAndTokenByOffset(c, offset); node != nil {
				return node, t
			}
		}
	}
	return nil, nil
}

// isNameChainKind reports whether k is one of the wrapper kinds
// svparser.parseNameExpression builds (NodeInvocationExpression is
// deliberately excluded: a call is not itself part of a selector chain,
// even though it wraps one).
func isNameChainKind(k svsyntax.NodeKind) bool {
	switch k {
	case svsyntax.NodeIdentifierName, svsyntax.NodeScopedName, svsyntax.NodeMemberAccess, svsyntax.NodeIndexSelector:
		return true
	default:
		return false
	}
}

// findEnclosingName climbs syntax's Parent chain through the name-chain
// kinds, returning the outermost node of the chain n belongs to (or nil if
// n is not itself a name-chain node).
func findEnclosingName(n *svsyntax.Node) *svsyntax.Node {
	if n == nil || !isNameChainKind(n.Kind) {
		return nil
	}
	cur := n
	for cur.Parent != nil && isNameChainKind(cur.Parent.Kind) {
		cur = cur.Parent
	}
	return cur
}

// nameChainBase returns the innermost (leftmost) identifier of the name
// chain n belongs to, following Extra["base"] down to the leaf.
func nameChainBase(n *svsyntax.Node) *svsyntax.Node {
	cur := n
	for {
		base, ok := cur.Extra["base"]
		if !ok || len(base) != 1 {
			return cur
		}
		cur = base[0]
	}
}

// nameChainSelectors returns the wrapper nodes between the chain's base and
// n, in source (left-to-right) order.
func nameChainSelectors(n *svsyntax.Node) []*svsyntax.Node {
	var chain []*svsyntax.Node
	cur := n
	for {
		base, ok := cur.Extra["base"]
		if !ok || len(base) != 1 {
			break
		}
		chain = append(chain, cur)
		cur = base[0]
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// resolveByNameLookup implements spec.md §4.4.2 step 6: findEnclosingName,
// a name-lookup of the chain's base symbol against scope (package-qualified
// bases are looked up as a package member instead), then the ordered
// selector walk — member selector moves to scopeOf(current).FindLocal(name),
// index selector moves to current's element type — stopping once the
// selector containing tok has been applied.
func (a *ShallowAnalysis) resolveByNameLookup(tok *entity.Token, syntax *svsyntax.Node, scope *entity.Scope) (*entity.Symbol, bool) {
	nameSyntax := findEnclosingName(syntax)
	if nameSyntax == nil {
		if found := scope.Find(tok.Raw); found != nil {
			return found, true
		}
		return nil, false
	}

	base := nameChainBase(nameSyntax)
	chain := nameChainSelectors(nameSyntax)

	var found *entity.Symbol
	if len(chain) > 0 && chain[0].Kind == svsyntax.NodeScopedName {
		pkg := a.comp.GetPackage(base.Name.Raw)
		if pkg == nil {
			return nil, false
		}
		found = pkg
	} else {
		found = scope.Find(base.Name.Raw)
		if found == nil {
			return nil, false
		}
	}

	if base == nameSyntax {
		return found, found != nil
	}

	cur := found
	for _, sel := range chain {
		switch sel.Kind {
		case svsyntax.NodeScopedName, svsyntax.NodeMemberAccess:
			if sel.Name == nil {
				return nil, false
			}
			memberScope := scopeOfSymbol(cur)
			if memberScope == nil {
				return nil, false
			}
			cur = memberScope.FindLocal(sel.Name.Raw)
			if cur == nil {
				return nil, false
			}
		case svsyntax.NodeIndexSelector:
			cur = arrayElementType(cur)
			if cur == nil {
				return nil, false
			}
		}
		if sel == syntax {
			break
		}
	}
	return cur, cur != nil
}

// scopeOfSymbol returns the scope a member-access selector should continue
// into from sym: sym's own scope if it is a scoping symbol (a package,
// class, or instance), otherwise its resolved type's scope, following a
// TypeAlias through AliasOf.
func scopeOfSymbol(sym *entity.Symbol) *entity.Scope {
	if sym == nil {
		return nil
	}
	if sym.Kind == entity.SymbolTypeAlias {
		return scopeOfSymbol(sym.AliasOf)
	}
	if sym.Kind.IsScoping() {
		return sym.Scope()
	}
	return scopeOfSymbol(sym.TypeOf)
}

// arrayElementType approximates spec.md §4.4.2 step 6's "array element type
// of the current symbol's type": this shallow compilation does not model a
// distinct array type from its element type, so a variable/port/parameter/
// struct-member's TypeOf already stands in for what an index selector
// reaches; indexing an instance array moves to the instantiated definition.
func arrayElementType(sym *entity.Symbol) *entity.Symbol {
	if sym == nil {
		return nil
	}
	if sym.Kind == entity.SymbolInstanceArray {
		return sym.InstanceOf
	}
	return sym.TypeOf
}

// resolveDotMemberClause implements spec.md §4.4.2 step 7's interface-port
// fallback: resolve the interface definition by name; if tok is the
// interface name token, return the definition directly; otherwise tok is
// the modport name, and this shallow compilation looks it up directly in
// the interface's own scope (it does not model a distinct default instance
// or modport member set), falling back to the interface definition itself
// when no such member exists.
func (a *ShallowAnalysis) resolveDotMemberClause(syntax *svsyntax.Node, tok *entity.Token) (*entity.Symbol, bool) {
	if syntax.Name == nil {
		return nil, false
	}
	def := a.comp.TryGetDefinition(syntax.Name.Raw, nil)
	if def == nil {
		return nil, false
	}
	if tok == syntax.Name {
		return def, true
	}
	modports := syntax.Extra["modport"]
	if len(modports) != 1 || modports[0].Name != tok {
		return nil, false
	}
	if scope := def.Scope(); scope != nil {
		if m := scope.FindLocal(modports[0].Name.Raw); m != nil {
			return m, true
		}
	}
	return def, true
}

// GetSymbolAt resolves the word token at loc, then getSymbolAtToken.
func (a *ShallowAnalysis) GetSymbolAt(loc entity.SourceLocation) (*entity.Symbol, bool) {
	tok := a.index.GetWordTokenAt(loc)
	if tok == nil {
		return nil, false
	}
	return a.GetSymbolAtToken(tok)
}

// GetScopeAt resolves the syntax node at loc, then scopeForSyntax.
func (a *ShallowAnalysis) GetScopeAt(loc entity.SourceLocation) *entity.Scope {
	syntax := a.index.GetSyntaxAt(loc)
	if syntax == nil {
		return nil
	}
	return a.sym.ScopeForSyntax(syntax)
}

// AddLocalReferences implements spec.md §4.4.3's single linear scan: find
// the token matching targetName at targetLoc, then collect every later
// token resolving to the same symbol by identity (falling back to
// declaration-location equality).
func (a *ShallowAnalysis) AddLocalReferences(out *[]entity.SourceRange, targetLoc entity.SourceLocation, targetName string) {
	toks := a.index.TokensInOrder()
	var target *entity.Symbol
	start := -1
	for i, tok := range toks {
		if tok.Raw != targetName {
			continue
		}
		sym, ok := a.GetSymbolAtToken(tok)
		if !ok {
			continue
		}
		if sym.Decl == targetLoc {
			target = sym
			start = i
			*out = append(*out, tok.Range)
			break
		}
	}
	if target == nil {
		return
	}
	for i := start + 1; i < len(toks); i++ {
		tok := toks[i]
		if tok.Raw != targetName {
			continue
		}
		sym, ok := a.GetSymbolAtToken(tok)
		if !ok {
			continue
		}
		if sym == target || sym.Decl == target.Decl {
			*out = append(*out, tok.Range)
		}
	}
}

// Index exposes the underlying Syntax Indexer, needed by the inlay
// collector and by Document's diagnostics filtering.
func (a *ShallowAnalysis) Index() *svsyntax.Index { return a.index }

// Macro looks up a recorded `define by name.
func (a *ShallowAnalysis) Macro(name string) (*svsyntax.Node, bool) {
	m, ok := a.macros[name]
	return m, ok
}

// Primary returns the primary syntax tree this analysis was built from.
func (a *ShallowAnalysis) Primary() *svsyntax.SyntaxTree { return a.primary }

// GetInlayHints delegates to the inlay collector (spec.md §4.5); a
// *ShallowAnalysis satisfies inlay.Resolver directly.
func (a *ShallowAnalysis) GetInlayHints(lo, hi int, cfg inlay.Config) []inlay.Hint {
	return inlay.Collect(a, lo, hi, cfg)
}
