package analysis

import (
	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// OutlineKind is the closed set of outline entries the document-symbols
// visitor produces, per spec.md §4.4.4's syntax-kind mapping table.
type OutlineKind int

const (
	OutlineModule OutlineKind = iota
	OutlineClass
	OutlineFunction
	OutlineObject // a HierarchicalInstance within a HierarchyInstantiation
	OutlineStruct // a GenerateBlock
	OutlineVariable
	OutlineInterface // a port
	OutlineTypeParameter
	OutlineConstant // a macro, when requested
)

// DocumentSymbol is one node of the hierarchical outline.
type DocumentSymbol struct {
	Name           string
	Detail         string
	Kind           OutlineKind
	Range          entity.SourceRange
	SelectionRange entity.SourceRange
	Children       []*DocumentSymbol
}

// GetDocumentSymbols walks the primary syntax tree producing a hierarchical
// outline per the mapping table in spec.md §4.4.4. When includeMacros is
// set, one Constant entry is appended per `define whose name token has a
// real (non-macro-expanded) source location.
func (a *ShallowAnalysis) GetDocumentSymbols(includeMacros bool) []*DocumentSymbol {
	var out []*DocumentSymbol
	for _, child := range a.primary.Root.Children {
		if sym := outlineOf(child); sym != nil {
			out = append(out, sym)
		}
	}
	if includeMacros {
		for _, m := range a.primary.Macros {
			if m.Name == nil || m.Name.HasMacroOrigin() {
				continue
			}
			out = append(out, &DocumentSymbol{
				Name:           m.Name.Raw,
				Kind:           OutlineConstant,
				Range:          m.Range,
				SelectionRange: m.Name.Range,
			})
		}
	}
	return out
}

func outlineOf(node *svsyntax.Node) *DocumentSymbol {
	switch node.Kind {
	case svsyntax.NodeModuleDeclaration, svsyntax.NodeInterfaceDeclaration, svsyntax.NodeProgramDeclaration:
		return moduleOutline(node)
	case svsyntax.NodeClassDeclaration:
		return classOutline(node)
	case svsyntax.NodeFunctionDeclaration, svsyntax.NodeTaskDeclaration:
		return functionOutline(node)
	case svsyntax.NodeHierarchyInstantiation:
		return nil // handled by instantiationOutlines, not a single symbol
	case svsyntax.NodeGenerateBlock:
		return generateOutline(node)
	case svsyntax.NodeNetDeclaration, svsyntax.NodeDataDeclaration:
		return nil // handled by variableOutlines (one-per-declarator fan-out)
	case svsyntax.NodeParameterDeclaration:
		return nil // handled by parameterOutlines
	default:
		return nil
	}
}

func childOutlines(node *svsyntax.Node) []*DocumentSymbol {
	var out []*DocumentSymbol
	for _, c := range node.Children {
		switch c.Kind {
		case svsyntax.NodeHierarchyInstantiation:
			out = append(out, instantiationOutlines(c)...)
		case svsyntax.NodeNetDeclaration, svsyntax.NodeDataDeclaration:
			out = append(out, variableOutlines(c)...)
		case svsyntax.NodeParameterDeclaration:
			out = append(out, parameterOutlines(c)...)
		default:
			if sym := outlineOf(c); sym != nil {
				out = append(out, sym)
			}
		}
	}
	return out
}

func moduleOutline(node *svsyntax.Node) *DocumentSymbol {
	if node.Name == nil {
		return nil
	}
	sym := &DocumentSymbol{
		Name:           node.Name.Raw,
		Kind:           OutlineModule,
		Range:          node.Range,
		SelectionRange: node.Name.Range,
		Children:       childOutlines(node),
	}
	sym.Children = append(sym.Children, portOutlines(node)...)
	sym.Children = append(sym.Children, parameterOutlines(extraFirst(node, "parameters"))...)
	return sym
}

func extraFirst(node *svsyntax.Node, key string) *svsyntax.Node {
	nodes := node.Extra[key]
	if len(nodes) == 0 {
		return &svsyntax.Node{}
	}
	return &svsyntax.Node{Children: nodes}
}

func classOutline(node *svsyntax.Node) *DocumentSymbol {
	if node.Name == nil {
		return nil
	}
	return &DocumentSymbol{
		Name:           node.Name.Raw,
		Kind:           OutlineClass,
		Range:          node.Range,
		SelectionRange: node.Name.Range,
		Children:       childOutlines(node),
	}
}

func functionOutline(node *svsyntax.Node) *DocumentSymbol {
	if node.Name == nil {
		return nil
	}
	return &DocumentSymbol{
		Name:           node.Name.Raw,
		Kind:           OutlineFunction,
		Range:          node.Range,
		SelectionRange: node.Name.Range,
	}
}

func instantiationOutlines(node *svsyntax.Node) []*DocumentSymbol {
	var out []*DocumentSymbol
	detail := ""
	if node.Name != nil {
		detail = node.Name.Raw
	}
	for _, inst := range node.Children {
		if inst.Name == nil {
			continue
		}
		out = append(out, &DocumentSymbol{
			Name:           inst.Name.Raw,
			Detail:         detail,
			Kind:           OutlineObject,
			Range:          inst.Range,
			SelectionRange: inst.Name.Range,
		})
	}
	return out
}

// generateOutline uses the block's label when present. Anonymous generate
// blocks still surface in the outline under an explicit override name,
// since spec only drops *unnamed-and-unoverridden* entries.
func generateOutline(node *svsyntax.Node) *DocumentSymbol {
	name := "generate"
	var selection entity.SourceRange
	if node.Name != nil {
		name = node.Name.Raw
		selection = node.Name.Range
	}
	return &DocumentSymbol{
		Name:           name,
		Kind:           OutlineStruct,
		Range:          node.Range,
		SelectionRange: selection,
		Children:       childOutlines(node),
	}
}

func variableOutlines(node *svsyntax.Node) []*DocumentSymbol {
	var out []*DocumentSymbol
	for _, decl := range node.Children {
		if decl.Name == nil {
			continue
		}
		out = append(out, &DocumentSymbol{
			Name:           decl.Name.Raw,
			Kind:           OutlineVariable,
			Range:          decl.Range,
			SelectionRange: decl.Name.Range,
		})
	}
	return out
}

// portOutlines surfaces a module/interface's port list as Interface
// entries. Detail is left blank: this shallow parser does not retain a
// port's full header tokens (direction, type, width), only its name, so
// spec's "detail = port header text" is not reproducible here.
func portOutlines(node *svsyntax.Node) []*DocumentSymbol {
	var out []*DocumentSymbol
	for _, port := range node.Extra["ports"] {
		if port.Name == nil {
			continue
		}
		out = append(out, &DocumentSymbol{
			Name:           port.Name.Raw,
			Kind:           OutlineInterface,
			Range:          port.Range,
			SelectionRange: port.Name.Range,
		})
	}
	return out
}

func parameterOutlines(node *svsyntax.Node) []*DocumentSymbol {
	var out []*DocumentSymbol
	decls := node.Children
	if node.Name != nil {
		decls = []*svsyntax.Node{node}
	}
	for _, decl := range decls {
		if decl.Name == nil {
			continue
		}
		out = append(out, &DocumentSymbol{
			Name:           decl.Name.Raw,
			Kind:           OutlineTypeParameter,
			Range:          decl.Range,
			SelectionRange: decl.Name.Range,
		})
	}
	return out
}
