package analysis

import "github.com/svlsp/svls-core/src/svls/svsyntax"

// CodeUnresolvedInstance is the only semantic diagnostic this shallow
// compilation can safely emit on its own: an instance whose module/
// interface/program type never resolved to a definition visible in this
// compilation (missing dependency, undefined type, or a primitive/gate
// instantiation this symbol table doesn't model). Anything requiring true
// elaboration — width mismatches, parameter-override errors, unused/
// multi-driven nets — is out of scope; Document.IssueDiagnostics sources
// those from an external DiagnosticEngine instead.
const CodeUnresolvedInstance = "unresolved-instance"

// Diagnose walks the primary tree for instantiations that did not resolve
// to a definition. It is deliberately narrow: spec.md's Non-goals exclude
// full hierarchical elaboration, so this never attempts driver-conflict or
// width-mismatch diagnostics a real elaborator would produce.
func (a *ShallowAnalysis) Diagnose() []svsyntax.Diagnostic {
	var out []svsyntax.Diagnostic
	a.primary.Root.Walk(func(n *svsyntax.Node) bool {
		if n.Kind != svsyntax.NodeHierarchyInstantiation || n.Name == nil {
			return true
		}
		if _, ok := a.GetSymbolAtToken(n.Name); !ok {
			out = append(out, svsyntax.Diagnostic{
				Range:    n.Name.Range,
				Severity: svsyntax.SeverityWarning,
				Code:     CodeUnresolvedInstance,
				Message:  "unknown module or interface \"" + n.Name.Raw + "\"",
			})
		}
		return true
	})
	return out
}
