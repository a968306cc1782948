// Package docregistry is a minimal, in-memory Document Driver (spec.md
// §6): it tracks every open Document by path and answers getDependentDocs
// by resolving `include directives to sibling files, opening them from
// disk on demand. It is a demonstration driver, not a workspace-wide
// indexer — cross-file symbol resolution beyond `include is explicitly a
// non-goal (spec.md §1).
package docregistry

import (
	"path/filepath"
	"sync"

	tally "github.com/uber-go/tally/v4"

	"github.com/svlsp/svls-core/src/svls/analysis"
	"github.com/svlsp/svls-core/src/svls/document"
	"github.com/svlsp/svls-core/src/svls/entity"
	"github.com/svlsp/svls-core/src/svls/sourcemgr"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// Registry is a path-keyed store of open Documents that also implements
// analysis.Driver.
type Registry struct {
	mu    sync.Mutex
	sm    *sourcemgr.Manager
	stats tally.Scope
	opts  analysis.Options
	docs  map[string]*document.Document
}

// New returns an empty Registry backed by sm.
func New(sm *sourcemgr.Manager, stats tally.Scope, opts analysis.Options) *Registry {
	return &Registry{
		sm:    sm,
		stats: stats,
		opts:  opts,
		docs:  make(map[string]*document.Document),
	}
}

// Open registers path with in-memory text, replacing any prior Document
// for the same path.
func (r *Registry) Open(path string, text []byte) *document.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := document.FromText(r.sm, r, path, text)
	r.docs[path] = doc
	r.stats.Gauge("open_documents").Update(float64(len(r.docs)))
	return doc
}

// OpenFromDisk registers path by reading it from disk, reusing an
// existing Document if one is already registered for that path.
func (r *Registry) OpenFromDisk(path string) (*document.Document, error) {
	r.mu.Lock()
	if doc, ok := r.docs[path]; ok {
		r.mu.Unlock()
		return doc, nil
	}
	r.mu.Unlock()

	doc, err := document.Open(r.sm, r, path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[path] = doc
	r.stats.Gauge("open_documents").Update(float64(len(r.docs)))
	return doc, nil
}

// Close removes path's Document from the registry.
func (r *Registry) Close(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, path)
	r.stats.Gauge("open_documents").Update(float64(len(r.docs)))
}

// Get returns the Document registered for path, if any.
func (r *Registry) Get(path string) (*document.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[path]
	return doc, ok
}

// Count returns the number of currently registered Documents.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

// SourceManager implements analysis.Driver.
func (r *Registry) SourceManager() *sourcemgr.Manager { return r.sm }

// Options implements analysis.Driver.
func (r *Registry) Options() analysis.Options { return r.opts }

// DependentDocs implements analysis.Driver: every `include directive in
// tree is resolved relative to tree's owning Document's directory and
// opened (or reused) from disk. An include that can't be resolved is
// skipped — spec.md §7's DependencyMissing policy says analysis still
// builds, with downstream lookups returning null for that symbol.
func (r *Registry) DependentDocs(tree *svsyntax.SyntaxTree) []analysis.DependentDoc {
	owner := r.docOwning(tree.Buffer)
	baseDir := "."
	if owner != nil {
		baseDir = filepath.Dir(owner.Path())
	}

	var out []analysis.DependentDoc
	seen := make(map[string]bool)
	tree.Root.Walk(func(n *svsyntax.Node) bool {
		if n.Kind != svsyntax.NodeIncludeDirective || n.Name == nil {
			return true
		}
		incPath := filepath.Join(baseDir, n.Name.Value)
		if seen[incPath] {
			return true
		}
		seen[incPath] = true

		dep, err := r.OpenFromDisk(incPath)
		if err != nil {
			return true
		}
		out = append(out, dep)
		return true
	})
	return out
}

func (r *Registry) docOwning(buffer entity.BufferId) *document.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.Buffer() == buffer {
			return doc
		}
	}
	return nil
}
