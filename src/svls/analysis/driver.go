// Package analysis implements Shallow Analysis: the per-document façade
// that ties a parsed SyntaxTree to a Compilation/Indexer pair and answers
// the query surface a language-server layer needs (symbol-at-position,
// document outline, document links, inlay hints, local references).
package analysis

import (
	"github.com/svlsp/svls-core/src/svls/sourcemgr"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// DependentDoc is the narrow slice of Document that Shallow Analysis needs
// from a dependency: just enough to fetch its current syntax tree. Kept as
// a local interface (rather than importing the document package directly)
// so analysis and document can depend on each other's types without an
// import cycle — document.Document satisfies this by construction.
type DependentDoc interface {
	SyntaxTree() (*svsyntax.SyntaxTree, error)
}

// Options is the opaque compilation/analysis configuration bag, mirroring
// spec's Driver.options. Analysis only ever passes this through, never
// interprets it.
type Options map[string]any

// Driver is the host-system collaborator supplied to every Shallow
// Analysis construction: it knows the full dependency graph and owns the
// shared Source Manager.
type Driver interface {
	// DependentDocs returns every document whose syntax tree must be part
	// of the compilation alongside tree — e.g. packages it imports,
	// modules it instantiates from elsewhere in the project.
	DependentDocs(tree *svsyntax.SyntaxTree) []DependentDoc
	SourceManager() *sourcemgr.Manager
	Options() Options
}
