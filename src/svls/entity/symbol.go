package entity

// SymbolKind is the closed set of semantic symbol specializations. Symbol
// is modeled as one struct carrying a Kind rather than as an interface
// hierarchy: per spec's design note, tagged variants read and copy more
// predictably than a type switch over a dozen small interfaces, and every
// consumer (getSymbolAtToken, the document-symbols visitor, the inlay
// collector) already dispatches on a kind anyway.
type SymbolKind int

const (
	SymbolUnknown SymbolKind = iota
	SymbolModule
	SymbolInterface
	SymbolProgram
	SymbolPackage
	SymbolInstance      // InstanceBody, normalized from an instantiation
	SymbolInstanceArray // InstanceArraySymbol, a generate-for array of instances
	SymbolPort
	SymbolParameter
	SymbolTypeParameter
	SymbolTypeAlias
	SymbolVariable
	SymbolNet
	SymbolFunction
	SymbolTask
	SymbolClass
	SymbolClassMember
	SymbolEnumType
	SymbolEnumValue
	SymbolStruct
	SymbolStructMember
	SymbolGenerateBlock
	SymbolTransparentMember // re-exported member, e.g. from a `package::*` import
	SymbolRoot              // the synthetic root of the symbol forest
	SymbolCompilationUnit   // the $unit scope holding file-scope declarations
)

// String returns a human-readable name for diagnostics and tests.
func (k SymbolKind) String() string {
	names := map[SymbolKind]string{
		SymbolModule:            "Module",
		SymbolInterface:         "Interface",
		SymbolProgram:           "Program",
		SymbolPackage:           "Package",
		SymbolInstance:          "Instance",
		SymbolInstanceArray:     "InstanceArray",
		SymbolPort:              "Port",
		SymbolParameter:         "Parameter",
		SymbolTypeParameter:     "TypeParameter",
		SymbolTypeAlias:         "TypeAlias",
		SymbolVariable:          "Variable",
		SymbolNet:               "Net",
		SymbolFunction:          "Function",
		SymbolTask:              "Task",
		SymbolClass:             "Class",
		SymbolClassMember:       "ClassMember",
		SymbolEnumType:          "EnumType",
		SymbolEnumValue:         "EnumValue",
		SymbolStruct:            "Struct",
		SymbolStructMember:      "StructMember",
		SymbolGenerateBlock:     "GenerateBlock",
		SymbolTransparentMember: "TransparentMember",
		SymbolRoot:              "Root",
		SymbolCompilationUnit:   "CompilationUnit",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "Unknown"
}

// IsScoping reports whether symbols of this kind own a Scope capable of
// holding member declarations (as opposed to leaf symbols like Port or
// EnumValue).
func (k SymbolKind) IsScoping() bool {
	switch k {
	case SymbolModule, SymbolInterface, SymbolProgram, SymbolPackage,
		SymbolInstance, SymbolClass, SymbolStruct, SymbolEnumType,
		SymbolGenerateBlock, SymbolRoot, SymbolCompilationUnit,
		SymbolFunction, SymbolTask:
		return true
	default:
		return false
	}
}

// Symbol is the semantic counterpart of a declaration. A Symbol is
// produced by the Symbol Indexer from one or more SyntaxNodes (an
// InstanceBody and its InstanceArraySymbol wrapper share one underlying
// declaration, for instance) and is otherwise immutable once built.
type Symbol struct {
	Kind SymbolKind
	Name string

	// Decl is where the symbol was declared; for specializations built by
	// normalization (e.g. an Instance built from an InstanceBody) it is the
	// location of the original declaring syntax, not the reference site.
	Decl SourceLocation

	// DeclRange is the full declaration range, used for hover/go-to-def.
	DeclRange SourceRange

	Parent *Symbol

	// Members is populated for scoping symbols; nil for leaf symbols.
	Members map[string]*Symbol

	// MemberOrder preserves declaration order for document-symbol listing,
	// since Members is a map.
	MemberOrder []*Symbol

	// TypeOf is set for Variable/Net/Port/Parameter symbols: the symbol
	// (TypeAlias, Struct, EnumType, ...) describing their type, when it
	// could be resolved shallowly (no full elaboration).
	TypeOf *Symbol

	// AliasOf is set on a TypeAlias symbol to the symbol it names, when
	// resolvable without full elaboration.
	AliasOf *Symbol

	// InstanceOf is set on Instance/InstanceArray symbols to the
	// module/interface/program symbol it instantiates, when that
	// definition is visible in the same document.
	InstanceOf *Symbol

	// Exported is set on Transparent members: the underlying symbol this
	// one re-exports (e.g. via a wildcard package import).
	Exported *Symbol
}

// Scope returns a view over this symbol's members, or a nil Scope if the
// symbol does not introduce one.
func (s *Symbol) Scope() *Scope {
	if s == nil || !s.Kind.IsScoping() {
		return nil
	}
	return &Scope{Owner: s}
}

// AddMember registers a child symbol under name, preserving declaration
// order. Scoping symbols only; callers are expected to have checked
// s.Kind.IsScoping().
func (s *Symbol) AddMember(name string, child *Symbol) {
	if s.Members == nil {
		s.Members = make(map[string]*Symbol)
	}
	s.Members[name] = child
	s.MemberOrder = append(s.MemberOrder, child)
	child.Parent = s
}

// Scope is a thin, read-mostly view over a scoping Symbol's members plus
// name-lookup semantics (walking up through Parent on miss). It is kept as
// a separate type from Symbol, rather than folded into it, because
// lookups need a notion of "no scope here" (nil *Scope) distinct from "an
// empty scope" — and because selector-chain resolution (a.b.c) needs to
// produce a Scope that is NOT a Symbol's own member scope (e.g. the scope
// introduced by a generate-for iteration variable).
type Scope struct {
	Owner *Symbol

	// Extra holds synthetic bindings that don't correspond to a member of
	// Owner: generate-loop variables, function arguments treated as local
	// variables, and the like.
	Extra map[string]*Symbol
}

// Find resolves name in this scope, then walks Parent scopes until the
// root. Returns nil if no symbol binds name anywhere in the chain.
func (sc *Scope) Find(name string) *Symbol {
	for cur := sc; cur != nil; cur = cur.parentScope() {
		if cur.Extra != nil {
			if sym, ok := cur.Extra[name]; ok {
				return sym
			}
		}
		if cur.Owner != nil {
			if sym, ok := cur.Owner.Members[name]; ok {
				return sym
			}
		}
	}
	return nil
}

func (sc *Scope) parentScope() *Scope {
	if sc == nil || sc.Owner == nil || sc.Owner.Parent == nil {
		return nil
	}
	return sc.Owner.Parent.Scope()
}

// FindLocal resolves name only among this scope's direct members, without
// walking to Parent. Used for selector/member-access resolution (a.b)
// where an unqualified-name fallback to an enclosing scope would be wrong.
func (sc *Scope) FindLocal(name string) *Symbol {
	if sc == nil {
		return nil
	}
	if sc.Extra != nil {
		if sym, ok := sc.Extra[name]; ok {
			return sym
		}
	}
	if sc.Owner != nil {
		if sym, ok := sc.Owner.Members[name]; ok {
			return sym
		}
	}
	return nil
}
