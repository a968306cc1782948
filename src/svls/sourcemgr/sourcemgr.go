// Package sourcemgr implements the Source Manager: the shared,
// thread-safe owner of buffer identity, text, line/column mapping, and
// macro-expansion metadata that every Document and ShallowAnalysis reads
// through. It is grounded on the teacher's documentStore locking
// discipline (one mutex guarding a map, read back via small accessor
// methods) from doc_sync.go, generalized from an LSP-session-keyed store
// to a BufferId-keyed one.
package sourcemgr

import (
	"fmt"
	"os"
	"sync"

	"github.com/minio/highwayhash"

	"github.com/svlsp/svls-core/src/svls/entity"
	svlserrors "github.com/svlsp/svls-core/src/svls/internal/errors"
	"github.com/svlsp/svls-core/src/svls/internal/protocol"
)

// highwayHashKey is a fixed, arbitrary 256-bit key. The Source Manager
// uses HighwayHash only as a fast, well-distributed content fingerprint
// for detecting no-op replaceBuffer calls, not as a cryptographic digest, so a fixed key is fine: no two
// processes ever compare fingerprints with each other.
var highwayHashKey = make([]byte, 32)

type bufferEntry struct {
	path string
	text []byte
	// fingerprint is the HighwayHash digest of text, used to short-circuit
	// replaceBuffer when the caller resupplies identical content.
	fingerprint uint64
	mapper      *protocol.TextOffsetMapper
	lineOffsets []int

	// macroFrames holds one entry per macro-expansion occurrence whose
	// expansion site lives in this buffer, in expansion order.
	macroFrames []entity.MacroFrame
}

// Manager owns every known buffer. It is safe for concurrent use; per
// spec.md §5, it is shared across all Documents while each Document's own
// state is single-threaded.
type Manager struct {
	mu           sync.Mutex
	buffers      map[entity.BufferId]*bufferEntry
	pathToLatest map[string]entity.BufferId
	nextID       entity.BufferId

	// retained counts outstanding RetentionGuard references per buffer id.
	// A buffer with a zero count and no reachable live tree may be
	// reclaimed; this implementation favors simplicity over aggressive
	// reclamation and never actually frees buffer text, only tracks
	// validity, matching spec's "prior ids become invalid but retained if
	// referenced" wording (validity, not presence, is what queries check).
	retained map[entity.BufferId]int
	invalid  map[entity.BufferId]bool

	readFile func(path string) ([]byte, error)
}

// New constructs an empty Manager. readFile defaults to os.ReadFile; tests
// substitute a stub.
func New() *Manager {
	return &Manager{
		buffers:      make(map[entity.BufferId]*bufferEntry),
		pathToLatest: make(map[string]entity.BufferId),
		retained:     make(map[entity.BufferId]int),
		invalid:      make(map[entity.BufferId]bool),
		readFile:     os.ReadFile,
	}
}

// NewWithReader constructs a Manager that reads disk content through fn,
// for tests and for callers that front disk access with internal/fs.
func NewWithReader(fn func(path string) ([]byte, error)) *Manager {
	m := New()
	m.readFile = fn
	return m
}

func fingerprint(text []byte) uint64 {
	return highwayhash.Sum64(text, highwayHashKey)
}

// AssignText stores text (appending a guaranteed trailing sentinel newline
// if absent) under path, returning a fresh BufferId. If path already names
// a buffer, the new id replaces it and the old one becomes invalid (but
// stays retained if a live guard still references it).
func (m *Manager) AssignText(path string, text []byte) entity.BufferId {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignTextLocked(path, text)
}

func (m *Manager) assignTextLocked(path string, text []byte) entity.BufferId {
	text = withTrailingSentinel(text)
	if old, ok := m.pathToLatest[path]; ok {
		m.invalid[old] = true
	}
	m.nextID++
	id := m.nextID
	m.buffers[id] = &bufferEntry{
		path:        path,
		text:        text,
		fingerprint: fingerprint(text),
		mapper:      protocol.NewTextOffsetMapper(text),
	}
	m.pathToLatest[path] = id
	return id
}

// ReplaceBuffer atomically swaps oldId's content for newBytes, returning a
// fresh BufferId. oldId becomes invalid; it is retained only if a live
// RetentionGuard still references it. If newBytes fingerprints identical
// to oldId's current text, the same id is returned and no new buffer is
// allocated.
func (m *Manager) ReplaceBuffer(oldID entity.BufferId, newBytes []byte) (entity.BufferId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.buffers[oldID]
	if !ok {
		return entity.InvalidBufferId, &svlserrors.StaleBufferError{Buffer: oldID}
	}
	newBytes = withTrailingSentinel(newBytes)
	if fingerprint(newBytes) == old.fingerprint {
		return oldID, nil
	}
	m.invalid[oldID] = true
	return m.assignTextLocked(old.path, newBytes), nil
}

// ReadSource loads path from disk if it is not already cached under its
// latest known BufferId, returning that id either way.
func (m *Manager) ReadSource(path string) (entity.BufferId, error) {
	m.mu.Lock()
	if id, ok := m.pathToLatest[path]; ok {
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	text, err := m.readFile(path)
	if err != nil {
		return entity.InvalidBufferId, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignTextLocked(path, text), nil
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

// Text returns the current text for id, or an error if id is unknown.
func (m *Manager) Text(id entity.BufferId) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.buffers[id]
	if !ok {
		return nil, &svlserrors.StaleBufferError{Buffer: id}
	}
	return e.text, nil
}

// IsValid reports whether id still refers to the latest assigned content
// for its path (spec §4.1/§7: StaleBuffer is the failure mode otherwise).
func (m *Manager) IsValid(id entity.BufferId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buffers[id]; !ok {
		return false
	}
	return !m.invalid[id]
}

// GetSourceLocation converts a 1-based (line, column) pair into a
// SourceLocation, failing with InvalidRangeError when out of bounds.
func (m *Manager) GetSourceLocation(id entity.BufferId, line, column int) (entity.SourceLocation, error) {
	m.mu.Lock()
	e, ok := m.buffers[id]
	m.mu.Unlock()
	if !ok {
		return entity.SourceLocation{}, &svlserrors.StaleBufferError{Buffer: id}
	}
	offsets := e.computeLineOffsets()
	if line < 1 || line > len(offsets) {
		return entity.SourceLocation{}, &svlserrors.InvalidRangeError{}
	}
	lineStart := offsets[line-1]
	lineEnd := len(e.text)
	if line < len(offsets) {
		lineEnd = offsets[line]
	}
	offset := lineStart + column - 1
	if offset < lineStart || offset > lineEnd {
		return entity.SourceLocation{}, &svlserrors.InvalidRangeError{}
	}
	return entity.SourceLocation{Buffer: id, Offset: offset}, nil
}

// GetLineNumber returns the 1-based line number containing loc.
func (m *Manager) GetLineNumber(loc entity.SourceLocation) (int, error) {
	m.mu.Lock()
	e, ok := m.buffers[loc.Buffer]
	m.mu.Unlock()
	if !ok {
		return 0, &svlserrors.StaleBufferError{Buffer: loc.Buffer}
	}
	offsets := e.computeLineOffsets()
	for i := len(offsets) - 1; i >= 0; i-- {
		if loc.Offset >= offsets[i] {
			return i + 1, nil
		}
	}
	return 1, nil
}

// GetColumnNumber returns the 1-based column number of loc within its line.
func (m *Manager) GetColumnNumber(loc entity.SourceLocation) (int, error) {
	line, err := m.GetLineNumber(loc)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	e := m.buffers[loc.Buffer]
	m.mu.Unlock()
	offsets := e.computeLineOffsets()
	return loc.Offset - offsets[line-1] + 1, nil
}

// computeLineOffsets lazily computes and caches the byte offset of every
// line start, mirroring spec's computeLineOffsets(text, out) contract.
func (e *bufferEntry) computeLineOffsets() []int {
	if e.lineOffsets != nil {
		return e.lineOffsets
	}
	offsets := []int{0}
	for i, b := range e.text {
		if b == '\n' && i+1 < len(e.text) {
			offsets = append(offsets, i+1)
		}
	}
	e.lineOffsets = offsets
	return offsets
}

// RecordMacroFrame registers one macro-expansion step so
// GetFullyOriginalLoc/GetMacroExpansions/GetMacroInfo can answer queries
// about it. Called by the parser/analysis layer as macro usages are
// indexed; not part of the external parser contract itself.
func (m *Manager) RecordMacroFrame(f entity.MacroFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.buffers[f.Expansion.Buffer]
	if !ok {
		return
	}
	e.macroFrames = append(e.macroFrames, f)
}

// GetFullyOriginalLoc walks the macro-frame chain backward from loc until
// it reaches a location with no recorded originating frame, returning the
// place the text was actually written.
func (m *Manager) GetFullyOriginalLoc(loc entity.SourceLocation) entity.SourceLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := loc
	for steps := 0; steps < 64; steps++ { // guards against a malformed cycle
		e, ok := m.buffers[cur.Buffer]
		if !ok {
			return cur
		}
		frame, found := findFrameByExpansion(e.macroFrames, cur)
		if !found {
			return cur
		}
		cur = frame.Originating
	}
	return cur
}

// GetMacroExpansions returns every expansion-site location whose
// originating location equals loc, i.e. every use site of the macro text
// written at loc.
func (m *Manager) GetMacroExpansions(loc entity.SourceLocation) []entity.SourceLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.SourceLocation
	for _, e := range m.buffers {
		for _, f := range e.macroFrames {
			if f.Originating == loc {
				out = append(out, f.Expansion)
			}
		}
	}
	return out
}

// GetMacroInfo returns the expansion range of the macro usage at loc, if
// loc falls within a recorded macro expansion.
func (m *Manager) GetMacroInfo(loc entity.SourceLocation) (entity.SourceRange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.buffers[loc.Buffer]
	if !ok {
		return entity.SourceRange{}, false
	}
	for _, f := range e.macroFrames {
		if f.ExpansionRange.Contains(loc) {
			return f.ExpansionRange, true
		}
	}
	return entity.SourceRange{}, false
}

func findFrameByExpansion(frames []entity.MacroFrame, loc entity.SourceLocation) (entity.MacroFrame, bool) {
	for _, f := range frames {
		if f.Expansion == loc {
			return f, true
		}
	}
	return entity.MacroFrame{}, false
}

// String is used in log lines to identify a manager instance cheaply.
func (m *Manager) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("sourcemgr.Manager{buffers=%d}", len(m.buffers))
}
