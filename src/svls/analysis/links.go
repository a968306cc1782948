package analysis

import (
	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// DocumentLink is one clickable include-directive reference.
type DocumentLink struct {
	Range  entity.SourceRange
	Target string
}

// GetDocumentLinks emits one link per include directive in the primary
// tree whose filename token lives in the primary buffer, per spec.md
// §4.4.3.
func (a *ShallowAnalysis) GetDocumentLinks() []DocumentLink {
	var out []DocumentLink
	a.primary.Root.Walk(func(n *svsyntax.Node) bool {
		if n.Kind == svsyntax.NodeIncludeDirective && n.Name != nil && n.Name.Range.Start.Buffer == a.primary.Buffer {
			out = append(out, DocumentLink{Range: n.Name.Range, Target: n.Name.Value})
		}
		return true
	})
	return out
}
