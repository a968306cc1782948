// Package entity contains the domain model shared by every component of the
// per-document analysis core: buffer identity, source locations, the
// concrete syntax model, and the semantic symbol model.
package entity

import "fmt"

// BufferId identifies one immutable snapshot of one source text. Replacing a
// document's text produces a new BufferId; the prior id becomes invalid but
// is retained for as long as a RetentionGuard references it.
type BufferId int64

// InvalidBufferId is the zero value, never assigned by a SourceManager.
const InvalidBufferId BufferId = 0

// String implements fmt.Stringer.
func (b BufferId) String() string {
	return fmt.Sprintf("buffer#%d", int64(b))
}

// SourceLocation is a position within one buffer, expressed as a byte
// offset. A location is either an "expansion" location (where the editor
// sees the token) or an "originating" location (where the token was
// written, possibly inside a macro definition in a different buffer); the
// two flavors share this same representation and are distinguished only by
// how the Source Manager reached them.
type SourceLocation struct {
	Buffer BufferId
	Offset int
}

// Valid reports whether this location refers to a real buffer.
func (l SourceLocation) Valid() bool {
	return l.Buffer != InvalidBufferId
}

// Less orders locations first by buffer id then by offset. Locations in
// different buffers are incomparable for range purposes, but a total order
// is still useful for stable sorting of mixed-buffer slices.
func (l SourceLocation) Less(other SourceLocation) bool {
	if l.Buffer != other.Buffer {
		return l.Buffer < other.Buffer
	}
	return l.Offset < other.Offset
}

// SourceRange is a half-open [Start, End) span within a single buffer.
type SourceRange struct {
	Start SourceLocation
	End   SourceLocation
}

// Empty reports whether the range spans zero bytes.
func (r SourceRange) Empty() bool {
	return r.Start == r.End
}

// Contains reports whether loc falls within [Start, End) in the same buffer.
func (r SourceRange) Contains(loc SourceLocation) bool {
	if loc.Buffer != r.Start.Buffer || loc.Buffer != r.End.Buffer {
		return false
	}
	return loc.Offset >= r.Start.Offset && loc.Offset < r.End.Offset
}

// Overlaps reports whether two ranges in the same buffer share any bytes.
func (r SourceRange) Overlaps(other SourceRange) bool {
	if r.Start.Buffer != other.Start.Buffer {
		return false
	}
	return r.Start.Offset < other.End.Offset && other.Start.Offset < r.End.Offset
}

// MacroFrame records one step of macro expansion: a use-site (expansion)
// location and the corresponding location inside the macro's definition
// body (originating). The Source Manager keeps a stack of these per
// expanded token so that getFullyOriginalLoc can walk all the way back to
// the place the text was actually written, and getMacroExpansions can walk
// forward to every use site.
type MacroFrame struct {
	Expansion   SourceLocation
	Originating SourceLocation
	// ExpansionRange is the full range in the expansion buffer that the
	// macro usage occupies, used by getMacroInfo.
	ExpansionRange SourceRange
}
