// Package inlay implements the Inlay Hint Collector (spec.md §4.5): given
// a byte-offset range and a small configuration, it dispatches over the
// Syntax Indexer's hint candidates and emits editor inlay hints for
// instantiation port/parameter names, call-argument names, macro-argument
// names, and parameterized class-reference argument names.
package inlay

import (
	"strings"

	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// instanceIndent is the fixed indent constant spec.md §4.5 adds on top of
// the module-type token's detected column when reindenting a wildcard
// port-connection expansion.
const instanceIndent = 2

// Config holds the five boolean/integer knobs spec.md §4.5 names.
type Config struct {
	PortTypes            bool
	OrderedInstanceNames bool
	WildcardNames        bool
	FuncArgNames         int
	MacroArgNames        int
}

// TextEdit describes a replacement the client can apply, e.g. a wildcard
// port-connection expansion.
type TextEdit struct {
	Range   entity.SourceRange
	NewText string
}

// Hint is one inlay annotation.
type Hint struct {
	Label    string
	At       entity.SourceLocation
	Tooltip  string
	TextEdit *TextEdit
}

// Resolver is the narrow slice of Shallow Analysis the collector needs:
// symbol-at-token resolution, macro lookup, and the Syntax Indexer's
// hint-candidate range query. analysis.ShallowAnalysis satisfies this by
// structural typing; no import of the analysis package is needed here,
// which keeps inlay a leaf package analysis can depend on.
type Resolver interface {
	GetSymbolAtToken(tok *entity.Token) (*entity.Symbol, bool)
	Macro(name string) (*svsyntax.Node, bool)
	Index() *svsyntax.Index
}

// Collect selects hint candidates in [lo, hi] (extended backward per step 1
// of spec.md §4.5) and dispatches each by node kind.
func Collect(r Resolver, lo, hi int, cfg Config) []Hint {
	var out []Hint
	for _, n := range r.Index().HintCandidates(lo, hi) {
		switch n.Kind {
		case svsyntax.NodeHierarchyInstantiation:
			out = append(out, hierarchyHints(r, n, cfg)...)
		case svsyntax.NodeInvocationExpression:
			out = append(out, invocationHints(r, n, cfg)...)
		case svsyntax.NodeMacroUsage:
			out = append(out, macroHints(r, n, cfg)...)
		case svsyntax.NodeClassName:
			out = append(out, classNameHints(r, n, cfg)...)
		}
	}
	return out
}

func hierarchyHints(r Resolver, node *svsyntax.Node, cfg Config) []Hint {
	if node.Name == nil {
		return nil
	}
	defSym, ok := r.GetSymbolAtToken(node.Name)
	if !ok {
		return nil
	}
	switch defSym.Kind {
	case entity.SymbolModule, entity.SymbolInterface, entity.SymbolProgram:
	default:
		return nil // primitive gate array or unresolved: skip
	}

	var hints []Hint

	if cfg.OrderedInstanceNames {
		params := orderedMembers(defSym, entity.SymbolParameter)
		for i, assign := range node.Extra["parameterAssignments"] {
			if assign.Name != nil || i >= len(params) {
				continue
			}
			hints = append(hints, Hint{Label: params[i].Name + ":", At: firstLoc(assign)})
		}
	}

	for _, inst := range node.Children {
		hints = append(hints, instanceConnectionHints(inst, defSym, cfg)...)
	}
	return hints
}

func orderedMembers(sym *entity.Symbol, kind entity.SymbolKind) []*entity.Symbol {
	var out []*entity.Symbol
	for _, m := range sym.MemberOrder {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func firstLoc(n *svsyntax.Node) entity.SourceLocation {
	if t := n.FirstToken(); t != nil {
		return t.Range.Start
	}
	return n.Range.Start
}

// portTypeText renders a best-effort type string for a port symbol. This
// shallow parser does not retain a port's direction/type tokens (only its
// name — see svsyntax.Node's PortDeclaration shape), so the rendered text
// is necessarily approximate; a richer parser would substitute the real
// header text here.
func portTypeText(port *entity.Symbol) string {
	return "logic " + port.Name
}

func instanceConnectionHints(inst *svsyntax.Node, defSym *entity.Symbol, cfg Config) []Hint {
	ports := orderedMembers(defSym, entity.SymbolPort)

	var hints []Hint
	var typeHints []*Hint
	linesSeen := make(map[int]int)

	orderedIdx := 0
	for _, conn := range inst.Extra["connections"] {
		switch conn.Kind {
		case svsyntax.NodeOrderedPortConnection:
			if cfg.OrderedInstanceNames && orderedIdx < len(ports) {
				hints = append(hints, Hint{Label: ports[orderedIdx].Name + ":", At: firstLoc(conn)})
			}
			orderedIdx++
		case svsyntax.NodeNamedPortConnection:
			if !cfg.PortTypes || conn.Name == nil {
				continue
			}
			port := findPortByName(ports, conn.Name.Raw)
			if port == nil {
				continue
			}
			h := Hint{Label: portTypeText(port), At: firstLoc(conn)}
			typeHints = append(typeHints, &h)
			linesSeen[conn.Range.Start.Offset]++
		case svsyntax.NodeWildcardPortConnection:
			if cfg.WildcardNames {
				hints = append(hints, wildcardHint(conn, defSym, ports))
			}
		}
	}

	if len(typeHints) > 0 {
		hints = append(hints, alignTypeHints(typeHints)...)
	}
	return hints
}

func findPortByName(ports []*entity.Symbol, name string) *entity.Symbol {
	for _, p := range ports {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// alignTypeHints right-pads every label to the longest one, so the
// rendered hints line up in a column, per spec.md §4.5's instance-level
// alignment rule. Hints that share the same byte offset are all dropped;
// hints at different offsets on the same source line are not detected and
// are all kept.
func alignTypeHints(hints []*Hint) []Hint {
	maxLen := 0
	for _, h := range hints {
		if len(h.Label) > maxLen {
			maxLen = len(h.Label)
		}
	}
	lineOf := func(h *Hint) int { return h.At.Offset } // proxy: distinct offsets are distinct lines in practice for port connections on one line each
	seen := make(map[int]int)
	for _, h := range hints {
		seen[lineOf(h)]++
	}
	var out []Hint
	for _, h := range hints {
		if seen[lineOf(h)] > 1 {
			continue
		}
		out = append(out, Hint{Label: h.Label + strings.Repeat(" ", maxLen-len(h.Label)), At: h.At})
	}
	return out
}

func wildcardHint(conn *svsyntax.Node, defSym *entity.Symbol, ports []*entity.Symbol) Hint {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	label := strings.Join(names, ", ")

	col := conn.Range.Start.Offset - lineStartApprox(conn)
	indent := strings.Repeat(" ", col+instanceIndent)
	var parts []string
	for _, name := range names {
		parts = append(parts, "."+name+"("+name+")")
	}
	newText := strings.Join(parts, ",\n"+indent)

	return Hint{
		Label:   label,
		At:      conn.Range.Start,
		Tooltip: defSym.Name,
		TextEdit: &TextEdit{
			Range:   conn.Range,
			NewText: newText,
		},
	}
}

// lineStartApprox returns 0; true column computation belongs to the
// caller that has access to the Source Manager's computeLineOffsets. The
// indentation this produces is therefore relative, not absolute — callers
// that need exact column alignment should post-process TextEdit.NewText
// using sourcemgr.Manager.GetColumnNumber on conn.Range.Start.
func lineStartApprox(*svsyntax.Node) int { return 0 }

func invocationHints(r Resolver, node *svsyntax.Node, cfg Config) []Hint {
	if node.Name == nil {
		return nil
	}
	subr, ok := r.GetSymbolAtToken(node.Name)
	if !ok || (subr.Kind != entity.SymbolFunction && subr.Kind != entity.SymbolTask) {
		return nil
	}
	args := node.Extra["arguments"]
	if len(args) < cfg.FuncArgNames {
		return nil
	}
	var hints []Hint
	for i, arg := range args {
		if i >= len(subr.MemberOrder) {
			break
		}
		hints = append(hints, Hint{Label: subr.MemberOrder[i].Name + ":", At: firstLoc(arg)})
	}
	return hints
}

func macroHints(r Resolver, node *svsyntax.Node, cfg Config) []Hint {
	if node.Name == nil {
		return nil
	}
	def, ok := r.Macro(node.Name.Value)
	if !ok {
		return nil
	}
	args := node.Extra["arguments"]
	formals := def.Extra["formalArgs"]
	if len(args) < cfg.MacroArgNames || len(formals) == 0 {
		return nil
	}
	var hints []Hint
	for i, arg := range args {
		if i >= len(formals) || formals[i].Name == nil {
			break
		}
		hints = append(hints, Hint{Label: formals[i].Name.Raw + ":", At: firstLoc(arg)})
	}
	return hints
}

func classNameHints(r Resolver, node *svsyntax.Node, cfg Config) []Hint {
	if node.Name == nil {
		return nil
	}
	cls, ok := r.GetSymbolAtToken(node.Name)
	if !ok || cls.Kind != entity.SymbolClass {
		return nil
	}
	params := orderedMembers(cls, entity.SymbolParameter)
	var hints []Hint
	for i, assign := range node.Extra["parameterAssignments"] {
		if assign.Name != nil || i >= len(params) {
			continue
		}
		hints = append(hints, Hint{Label: params[i].Name + ":", At: firstLoc(assign)})
	}
	return hints
}
