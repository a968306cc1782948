// Package document implements the Document component of spec.md §4.6: the
// per-file owner of a buffer id, its lazily (re)built syntax tree, and its
// lazily (re)built Shallow Analysis. A Document is not safe for concurrent
// use — spec.md §5's scheduling model requires operations on one Document
// to be serialized by the caller (e.g. one worker goroutine per open file);
// the mutex here only guards against accidental concurrent access, not to
// enable it.
package document

import (
	"bytes"
	"os"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/svlsp/svls-core/src/svls/analysis"
	"github.com/svlsp/svls-core/src/svls/entity"
	svlserrors "github.com/svlsp/svls-core/src/svls/internal/errors"
	protocolmapper "github.com/svlsp/svls-core/src/svls/internal/protocol"
	"github.com/svlsp/svls-core/src/svls/sourcemgr"
	"github.com/svlsp/svls-core/src/svls/svparser"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

// Change is one ordered text edit, addressed by LSP line/column positions
// per spec.md §4.6's onChange contract.
type Change struct {
	Range protocol.Range
	Text  string
}

// DiagnosticEngine is the external driver-analysis hook spec.md §6 calls
// AnalysisManager: a pluggable unused/multi-driven-net checker supplied by
// the host system. It is explicitly out of scope for this core to
// implement (full elaboration is a non-goal), so Document only defines the
// seam; passing a nil engine to IssueDiagnostics skips that stage.
type DiagnosticEngine interface {
	Analyze(tree *svsyntax.SyntaxTree) ([]svsyntax.Diagnostic, error)
}

// deniedSemanticCodes holds the closed deny-list of semantic diagnostic
// codes spec.md §4.6 calls out as unsafe to surface from a shallow
// compilation. Nothing this core currently emits carries these codes —
// see analysis.Diagnose — so the list exists to document the policy. It
// filters only the semantic diagnostics from analysis.Diagnose; the
// diagnostic engine's parse diagnostics are not filtered.
var deniedSemanticCodes = map[string]bool{
	"index-out-of-bounds": true,
}

// Document owns one source path's buffer lineage plus the tree and
// analysis built from its current buffer.
type Document struct {
	sm     *sourcemgr.Manager
	driver analysis.Driver
	path   string

	mu     sync.Mutex
	buffer entity.BufferId
	tree   *svsyntax.SyntaxTree
	an     *analysis.ShallowAnalysis
}

// FromText constructs a Document directly from in-memory text, assigning
// it a fresh buffer id. Used for documents the host opens without a
// backing file (LSP's textDocument/didOpen with untitled: URIs, test
// fixtures, and similar).
func FromText(sm *sourcemgr.Manager, driver analysis.Driver, path string, text []byte) *Document {
	return &Document{sm: sm, driver: driver, path: path, buffer: sm.AssignText(path, text)}
}

// Open constructs a Document by reading path from disk through the Source
// Manager.
func Open(sm *sourcemgr.Manager, driver analysis.Driver, path string) (*Document, error) {
	id, err := sm.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return &Document{sm: sm, driver: driver, path: path, buffer: id}, nil
}

// FromTree wraps an already-parsed tree (e.g. one built while resolving
// another Document's dependencies) without reparsing it.
func FromTree(sm *sourcemgr.Manager, driver analysis.Driver, path string, tree *svsyntax.SyntaxTree) *Document {
	return &Document{sm: sm, driver: driver, path: path, buffer: tree.Buffer, tree: tree}
}

// Path returns the path this Document was opened or constructed with.
func (d *Document) Path() string { return d.path }

// Buffer returns the current buffer id backing this Document.
func (d *Document) Buffer() entity.BufferId {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffer
}

// OnChange applies changes in order against the current buffer — the
// first against the Source Manager's current text, each subsequent change
// against the cumulative in-memory result — then publishes the combined
// text as a fresh buffer id via ReplaceBuffer. Tree and analysis are
// invalidated as the first visible effect of a successful change, per
// spec.md §5's ordering guarantee.
func (d *Document) OnChange(changes []Change) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	text, err := d.sm.Text(d.buffer)
	if err != nil {
		return err
	}

	newText, err := applyChanges(text, changes)
	if err != nil {
		return err
	}

	newID, err := d.sm.ReplaceBuffer(d.buffer, newText)
	if err != nil {
		return err
	}

	d.buffer = newID
	d.invalidateLocked()
	return nil
}

func applyChanges(initial []byte, changes []Change) ([]byte, error) {
	content := initial
	for _, ch := range changes {
		m := protocolmapper.NewTextOffsetMapper(content)
		start, err := m.PositionOffset(ch.Range.Start)
		if err != nil {
			return nil, &svlserrors.InvalidRangeError{}
		}
		end, err := m.PositionOffset(ch.Range.End)
		if err != nil {
			return nil, &svlserrors.InvalidRangeError{}
		}
		var buf bytes.Buffer
		buf.Grow(len(content) - (end - start) + len(ch.Text))
		buf.Write(content[:start])
		buf.WriteString(ch.Text)
		buf.Write(content[end:])
		content = buf.Bytes()
	}
	return content, nil
}

// ReloadBuffer re-reads this document's path from disk into a fresh
// buffer id, bypassing the Source Manager's path cache (ReadSource would
// return the existing id unchanged), and invalidates tree and analysis.
func (d *Document) ReloadBuffer() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.path == "" {
		return svlserrors.New("document has no backing path to reload")
	}
	text, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	d.buffer = d.sm.AssignText(d.path, text)
	d.invalidateLocked()
	return nil
}

func (d *Document) invalidateLocked() {
	d.tree = nil
	if d.an != nil {
		d.an.Release()
		d.an = nil
	}
}

// GetSyntaxTree lazily (re)parses the current buffer, reusing the cached
// tree unless it is absent or its buffer id has gone stale.
func (d *Document) GetSyntaxTree() (*svsyntax.SyntaxTree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getSyntaxTreeLocked()
}

func (d *Document) getSyntaxTreeLocked() (*svsyntax.SyntaxTree, error) {
	if d.tree != nil && d.sm.IsValid(d.tree.Buffer) {
		return d.tree, nil
	}
	text, err := d.sm.Text(d.buffer)
	if err != nil {
		return nil, err
	}
	d.tree = svparser.Parse(d.buffer, string(text))
	if d.an != nil {
		d.an.Release()
		d.an = nil
	}
	return d.tree, nil
}

// SyntaxTree satisfies analysis.DependentDoc, so any Document can serve as
// another Document's dependency without either package importing the
// other's concrete type.
func (d *Document) SyntaxTree() (*svsyntax.SyntaxTree, error) {
	return d.GetSyntaxTree()
}

// GetAnalysis lazily (re)builds the Shallow Analysis, refetching
// dependencies from the driver when refreshDeps is set, when none is
// cached yet, or when the cached one's buffers are no longer valid.
func (d *Document) GetAnalysis(refreshDeps bool) (*analysis.ShallowAnalysis, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getAnalysisLocked(refreshDeps)
}

func (d *Document) getAnalysisLocked(refreshDeps bool) (*analysis.ShallowAnalysis, error) {
	tree, err := d.getSyntaxTreeLocked()
	if err != nil {
		return nil, err
	}
	if d.an != nil && !refreshDeps && d.an.HasValidBuffers() {
		return d.an, nil
	}
	if d.an != nil {
		d.an.Release()
		d.an = nil
	}
	an, err := analysis.New(d.driver, tree)
	if err != nil {
		return nil, err
	}
	d.an = an
	return an, nil
}

// IssueDiagnostics combines parse diagnostics, this compilation's own
// semantic diagnostics, and (if supplied) the external engine's
// unused/multi-driven findings — each filtered to this document's primary
// buffer via GetFullyOriginalLoc, and with the semantic deny-list applied.
func (d *Document) IssueDiagnostics(engine DiagnosticEngine) ([]svsyntax.Diagnostic, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tree, err := d.getSyntaxTreeLocked()
	if err != nil {
		return nil, err
	}

	out := make([]svsyntax.Diagnostic, 0, len(tree.Diagnostics))
	out = append(out, tree.Diagnostics...)

	if an, err := d.getAnalysisLocked(false); err == nil {
		for _, diag := range an.Diagnose() {
			if deniedSemanticCodes[diag.Code] {
				continue
			}
			if d.isPrimaryLocLocked(diag.Range.Start) {
				out = append(out, diag)
			}
		}
	}

	if engine != nil {
		driverDiags, err := engine.Analyze(tree)
		if err == nil {
			for _, diag := range driverDiags {
				if d.isPrimaryLocLocked(diag.Range.Start) {
					out = append(out, diag)
				}
			}
		}
	}

	return out, nil
}

func (d *Document) isPrimaryLocLocked(loc entity.SourceLocation) bool {
	return d.sm.GetFullyOriginalLoc(loc).Buffer == d.buffer
}

// TextMatches compares text byte-for-byte against the current buffer's
// content, including the Source Manager's trailing-newline sentinel. It
// exists as a correctness check callers can run after applying edits.
func (d *Document) TextMatches(text []byte) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	current, err := d.sm.Text(d.buffer)
	if err != nil {
		return false, err
	}
	return bytes.Equal(current, withTrailingSentinel(text)), nil
}

func withTrailingSentinel(text []byte) []byte {
	if len(text) > 0 && text[len(text)-1] == '\n' {
		return text
	}
	out := make([]byte, len(text)+1)
	copy(out, text)
	out[len(text)] = '\n'
	return out
}
