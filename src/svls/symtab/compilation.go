// Package symtab implements the Symbol Indexer and the minimal internal
// "shallow elaborator" (Compilation) that stands in for the external
// SystemVerilog compilation library spec.md places out of scope (§6,
// Parser/elaborator). Compilation builds a symbol tree directly from the
// svsyntax trees produced by svparser; Indexer then walks that tree the
// way spec.md §4.3 describes, producing syntaxToSymbol/tokenToSymbol.
//
// This is deliberately shallow, matching the glossary's "shallow
// compilation" entry: only the symbols reachable from the primary
// document and its declared dependents are elaborated, there is no fixed
// top, and instance recursion is bounded (MAX_INSTANCE_DEPTH, spec §9).
package symtab

import (
	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// MaxInstanceDepth bounds recursion into instance bodies, per spec.md §9's
// "Cyclic/deep structures" design note.
const MaxInstanceDepth = 8

// Compilation is the elaborator stand-in: a symbol forest built from one
// primary tree plus its dependent trees, with instance references resolved
// against whatever definitions are visible across all of them.
type Compilation struct {
	Root *entity.Symbol

	// Definitions holds every module/interface/program declaration found
	// across every tree added to this compilation, keyed by name.
	Definitions map[string]*entity.Symbol
	// Packages holds every package declaration, keyed by name.
	Packages map[string]*entity.Symbol
	// Types holds every named struct/enum/typedef/class declaration found
	// across every tree added to this compilation, keyed by name — the
	// targets a declarator's type name resolves against in ResolveTypes.
	Types map[string]*entity.Symbol

	// unitOf maps a buffer id to its CompilationUnit symbol, the scope
	// that owns that buffer's top-level declarations.
	unitOf map[entity.BufferId]*entity.Symbol

	// declaredType records, for a symbol whose declaration named a
	// user-defined type, that type name — consumed by ResolveTypes once
	// every tree has been added (a type can be declared after its use).
	declaredType map[*entity.Symbol]string

	// synOf records, for every symbol built from syntax, the node that
	// declared it — the Symbol Indexer's "N" in spec.md §4.3's general
	// rule. Symbols fabricated without syntax (the root, invalid default
	// instances) are simply absent from this map.
	synOf map[*entity.Symbol]*svsyntax.Node

	// instantiationOf maps an Instance symbol to the HierarchyInstantiation
	// node that introduced it (as opposed to synOf, which maps it to its
	// own InstanceName node) — needed to cross-annotate the module-type
	// token per spec's InstanceSymbol specialization.
	instantiationOf map[*entity.Symbol]*svsyntax.Node
}

// NewCompilation creates an empty Compilation ready to have trees added.
func NewCompilation() *Compilation {
	return &Compilation{
		Root:            &entity.Symbol{Kind: entity.SymbolRoot},
		Definitions:     make(map[string]*entity.Symbol),
		Packages:        make(map[string]*entity.Symbol),
		Types:           make(map[string]*entity.Symbol),
		unitOf:          make(map[entity.BufferId]*entity.Symbol),
		declaredType:    make(map[*entity.Symbol]string),
		synOf:           make(map[*entity.Symbol]*svsyntax.Node),
		instantiationOf: make(map[*entity.Symbol]*svsyntax.Node),
	}
}

// SyntaxOf returns the declaring node for sym, or nil if sym was fabricated
// without one (e.g. the root, or an invalid default instance).
func (c *Compilation) SyntaxOf(sym *entity.Symbol) *svsyntax.Node {
	return c.synOf[sym]
}

// InstantiationOf returns the HierarchyInstantiation node that introduced
// an Instance symbol, or nil.
func (c *Compilation) InstantiationOf(sym *entity.Symbol) *svsyntax.Node {
	return c.instantiationOf[sym]
}

// AddTree elaborates one syntax tree's top-level declarations into this
// compilation. Trees should be added primary-first; later trees (the
// dependency set from the Document Driver) only contribute Definitions,
// Packages and Types, they do not themselves become lookup targets for
// unqualified names outside their own compilation unit.
func (c *Compilation) AddTree(tree *svsyntax.SyntaxTree) {
	unit := &entity.Symbol{Kind: entity.SymbolCompilationUnit}
	unit.Parent = c.Root
	c.unitOf[tree.Buffer] = unit
	c.Root.AddMember(unitKey(tree.Buffer), unit)

	for _, child := range tree.Root.Children {
		c.buildTopLevel(child, unit)
	}
}

func unitKey(id entity.BufferId) string {
	return "$unit:" + id.String()
}

func (c *Compilation) buildTopLevel(node *svsyntax.Node, unit *entity.Symbol) {
	switch node.Kind {
	case svsyntax.NodeModuleDeclaration, svsyntax.NodeInterfaceDeclaration, svsyntax.NodeProgramDeclaration:
		def := c.buildDefinition(node, unit)
		c.Definitions[def.Name] = def
	case svsyntax.NodePackageDeclaration:
		pkg := c.buildPackage(node, unit)
		c.Packages[pkg.Name] = pkg
	case svsyntax.NodeClassDeclaration:
		cls := c.buildClass(node, unit)
		c.Definitions[cls.Name] = cls
		c.Types[cls.Name] = cls
	}
}

func symbolKindFor(k svsyntax.NodeKind) entity.SymbolKind {
	switch k {
	case svsyntax.NodeModuleDeclaration:
		return entity.SymbolModule
	case svsyntax.NodeInterfaceDeclaration:
		return entity.SymbolInterface
	case svsyntax.NodeProgramDeclaration:
		return entity.SymbolProgram
	default:
		return entity.SymbolUnknown
	}
}

func nameOf(tok *entity.Token) string {
	if tok == nil {
		return ""
	}
	return tok.Raw
}

func declLoc(node *svsyntax.Node) entity.SourceLocation {
	if node.Name != nil {
		return node.Name.Range.Start
	}
	return node.Range.Start
}

// extraName returns the Name token's raw text of the single node stored
// under node.Extra[key], or "" if absent.
func extraName(node *svsyntax.Node, key string) string {
	nodes := node.Extra[key]
	if len(nodes) != 1 || nodes[0].Name == nil {
		return ""
	}
	return nodes[0].Name.Raw
}

func (c *Compilation) buildDefinition(node *svsyntax.Node, parent *entity.Symbol) *entity.Symbol {
	def := &entity.Symbol{
		Kind:      symbolKindFor(node.Kind),
		Name:      nameOf(node.Name),
		Decl:      declLoc(node),
		DeclRange: node.Range,
	}
	c.synOf[def] = node
	parent.AddMember(def.Name, def)

	for _, child := range node.Children {
		c.buildMember(child, def)
	}
	for _, port := range node.Extra["ports"] {
		c.buildMember(port, def)
	}
	for _, param := range node.Extra["parameters"] {
		c.buildMember(param, def)
	}
	return def
}

func (c *Compilation) buildPackage(node *svsyntax.Node, parent *entity.Symbol) *entity.Symbol {
	pkg := &entity.Symbol{Kind: entity.SymbolPackage, Name: nameOf(node.Name), Decl: declLoc(node), DeclRange: node.Range}
	c.synOf[pkg] = node
	parent.AddMember(pkg.Name, pkg)
	if pkg.Decl.Buffer == node.Range.Start.Buffer {
		for _, child := range node.Children {
			c.buildMember(child, pkg)
		}
	}
	return pkg
}

func (c *Compilation) buildClass(node *svsyntax.Node, parent *entity.Symbol) *entity.Symbol {
	cls := &entity.Symbol{Kind: entity.SymbolClass, Name: nameOf(node.Name), Decl: declLoc(node), DeclRange: node.Range}
	c.synOf[cls] = node
	parent.AddMember(cls.Name, cls)
	for _, param := range node.Extra["parameters"] {
		c.buildMember(param, cls)
	}
	for _, child := range node.Children {
		c.buildMember(child, cls)
	}
	return cls
}

// buildMember builds one member symbol from a body-item syntax node and
// attaches it to parent's scope. Most kinds are straightforward; instance
// resolution (InstanceOf) happens in a second pass via ResolveInstances,
// since forward references to not-yet-built definitions are common.
func (c *Compilation) buildMember(node *svsyntax.Node, parent *entity.Symbol) {
	switch node.Kind {
	case svsyntax.NodePortDeclaration:
		if node.Name == nil {
			return
		}
		sym := &entity.Symbol{Kind: entity.SymbolPort, Name: node.Name.Raw, Decl: node.Name.Range.Start, DeclRange: node.Range}
		c.synOf[sym] = node
		parent.AddMember(sym.Name, sym)
	case svsyntax.NodeParameterDeclaration:
		if node.Name != nil {
			sym := &entity.Symbol{Kind: entity.SymbolParameter, Name: node.Name.Raw, Decl: node.Name.Range.Start, DeclRange: node.Range}
			c.synOf[sym] = node
			parent.AddMember(sym.Name, sym)
			return
		}
		for _, decl := range node.Children {
			c.buildMember(decl, parent)
		}
	case svsyntax.NodeDataDeclaration, svsyntax.NodeNetDeclaration:
		kind := entity.SymbolVariable
		if node.Kind == svsyntax.NodeNetDeclaration {
			kind = entity.SymbolNet
		}
		typeName := extraName(node, "typeName")
		clsType := node.Extra["classType"]
		for _, decl := range node.Children {
			if decl.Name == nil {
				continue
			}
			sym := &entity.Symbol{Kind: kind, Name: decl.Name.Raw, Decl: decl.Name.Range.Start, DeclRange: decl.Range}
			c.synOf[sym] = decl
			parent.AddMember(sym.Name, sym)
			if typeName != "" {
				c.declaredType[sym] = typeName
			} else if len(clsType) == 1 && clsType[0].Name != nil {
				c.declaredType[sym] = clsType[0].Name.Raw
			}
		}
	case svsyntax.NodeFunctionDeclaration, svsyntax.NodeTaskDeclaration:
		kind := entity.SymbolFunction
		if node.Kind == svsyntax.NodeTaskDeclaration {
			kind = entity.SymbolTask
		}
		sym := &entity.Symbol{Kind: kind, Name: nameOf(node.Name), Decl: declLoc(node), DeclRange: node.Range}
		c.synOf[sym] = node
		for _, arg := range node.Extra["arguments"] {
			if arg.Name == nil {
				continue
			}
			argSym := &entity.Symbol{Kind: entity.SymbolVariable, Name: arg.Name.Raw, Decl: arg.Name.Range.Start, DeclRange: arg.Range}
			c.synOf[argSym] = arg
			sym.AddMember(argSym.Name, argSym)
		}
		parent.AddMember(sym.Name, sym)
	case svsyntax.NodeHierarchyInstantiation:
		for _, instChild := range node.Children {
			if instChild.Name == nil {
				continue
			}
			inst := &entity.Symbol{Kind: entity.SymbolInstance, Name: instChild.Name.Raw, Decl: instChild.Name.Range.Start, DeclRange: instChild.Range}
			c.synOf[inst] = instChild
			c.instantiationOf[inst] = node
			parent.AddMember(inst.Name, inst)
		}
	case svsyntax.NodeGenerateBlock, svsyntax.NodeGenerateForLoop:
		// Per spec, index the block itself only if named; recurse
		// regardless so its contents still become members of the
		// enclosing scope (a shallow-mode simplification: a real
		// implementation nests a distinct generate scope per iteration).
		if node.Name != nil {
			block := &entity.Symbol{Kind: entity.SymbolGenerateBlock, Name: node.Name.Raw, Decl: node.Name.Range.Start, DeclRange: node.Range}
			c.synOf[block] = node
			parent.AddMember(block.Name, block)
			for _, child := range node.Children {
				c.buildMember(child, block)
			}
			return
		}
		for _, child := range node.Children {
			c.buildMember(child, parent)
		}
	case svsyntax.NodeEnumDeclaration:
		enumType := &entity.Symbol{Kind: entity.SymbolEnumType, Name: nameOf(node.Name), Decl: declLoc(node), DeclRange: node.Range}
		c.synOf[enumType] = node
		for _, v := range node.Children {
			if v.Name == nil {
				continue
			}
			val := &entity.Symbol{Kind: entity.SymbolEnumValue, Name: v.Name.Raw, Decl: v.Name.Range.Start, DeclRange: v.Range}
			c.synOf[val] = v
			enumType.AddMember(val.Name, val)
		}
		if enumType.Name != "" {
			parent.AddMember(enumType.Name, enumType)
			c.Types[enumType.Name] = enumType
		}
	case svsyntax.NodeStructDeclaration:
		structType := &entity.Symbol{Kind: entity.SymbolStruct, Name: nameOf(node.Name), Decl: declLoc(node), DeclRange: node.Range}
		c.synOf[structType] = node
		for _, m := range node.Children {
			if m.Name == nil {
				continue
			}
			member := &entity.Symbol{Kind: entity.SymbolStructMember, Name: m.Name.Raw, Decl: m.Name.Range.Start, DeclRange: m.Range}
			c.synOf[member] = m
			structType.AddMember(member.Name, member)
			if typeName := extraName(m, "typeName"); typeName != "" {
				c.declaredType[member] = typeName
			}
		}
		if structType.Name != "" {
			parent.AddMember(structType.Name, structType)
			c.Types[structType.Name] = structType
		}
	case svsyntax.NodeTypedefDeclaration:
		if node.Name == nil {
			return
		}
		alias := &entity.Symbol{Kind: entity.SymbolTypeAlias, Name: node.Name.Raw, Decl: node.Name.Range.Start, DeclRange: node.Range}
		c.synOf[alias] = node
		parent.AddMember(alias.Name, alias)
		c.Types[alias.Name] = alias
		if aliasOf := extraName(node, "aliasType"); aliasOf != "" {
			c.declaredType[alias] = aliasOf
		}
	case svsyntax.NodeDefineDirective, svsyntax.NodeIncludeDirective, svsyntax.NodeMacroUsage,
		svsyntax.NodePackageImportItem, svsyntax.NodePackageExportItem:
		// Handled elsewhere (macros map, document links, import
		// resolution) rather than as symbol-table members.
	}
}

// ResolveInstances runs the second elaboration pass: every Instance
// symbol's InstanceOf is set to its resolved module/interface/program
// definition (if one is visible in this compilation), and its Members map
// is aliased to the definition's so port/parameter lookups by name
// succeed without copying the whole subtree.
func (c *Compilation) ResolveInstances() {
	c.resolveInstancesIn(c.Root, 0)
}

func (c *Compilation) resolveInstancesIn(scope *entity.Symbol, depth int) {
	for _, member := range scope.MemberOrder {
		if member.Kind == entity.SymbolInstance {
			instNode := c.instantiationOf[member]
			if instNode != nil && instNode.Name != nil {
				if def, ok := c.Definitions[instNode.Name.Raw]; ok {
					member.InstanceOf = def
					member.Members = def.Members
					member.MemberOrder = def.MemberOrder
				}
			}
		}
		if member.Kind.IsScoping() && depth < MaxInstanceDepth {
			c.resolveInstancesIn(member, depth+1)
		}
	}
}

// ResolveTypes runs a third elaboration pass, mirroring ResolveInstances:
// every symbol recorded in declaredType gets its TypeOf set to the
// matching entry in Types, if one is visible in this compilation. Run
// after every tree has been added so a type used before its declaration
// still resolves.
func (c *Compilation) ResolveTypes() {
	for sym, typeName := range c.declaredType {
		t, ok := c.Types[typeName]
		if !ok {
			continue
		}
		if sym.Kind == entity.SymbolTypeAlias {
			sym.AliasOf = t
		} else {
			sym.TypeOf = t
		}
	}
}

// TryGetDefinition looks up a module/interface/program definition by
// name, mirroring the external elaborator's
// compilation.tryGetDefinition(name, scope) (spec §4.4.2 step 7). The
// scope argument is accepted for interface-shape parity but unused: this
// shallow compilation resolves definitions globally across the primary
// tree and its dependents rather than per-scope.
func (c *Compilation) TryGetDefinition(name string, _ *entity.Scope) *entity.Symbol {
	return c.Definitions[name]
}

// GetPackage looks up a package definition by name.
func (c *Compilation) GetPackage(name string) *entity.Symbol {
	return c.Packages[name]
}
