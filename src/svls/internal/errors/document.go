package errors

import (
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/svlsp/svls-core/src/svls/entity"
)

// DocumentNotFoundError indicates that a document URI is not registered
// with the Document Driver.
type DocumentNotFoundError struct {
	Document protocol.TextDocumentIdentifier
}

// Error is an implementation of the error interface.
func (n *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", n.Document.URI)
}

// DocumentSizeLimitError indicates that a document's text exceeds a size
// limit and was not loaded into the Source Manager. No size limit is
// configured in this module and none of its packages return this error.
type DocumentSizeLimitError struct {
	Size int64
	Max  int64
}

// Error is an implementation of the error interface.
func (n *DocumentSizeLimitError) Error() string {
	return fmt.Sprintf("size of %d bytes exceeds permitted limit of %d bytes", n.Size, n.Max)
}

// InvalidRangeError indicates that a SourceRange passed to the Source
// Manager does not describe a valid span of its buffer: Start after End,
// an offset past the end of the text, or End in a different buffer than
// Start.
type InvalidRangeError struct {
	Range entity.SourceRange
}

// Error is an implementation of the error interface.
func (n *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %+v", n.Range)
}

// MalformedMacroArgError indicates that the text of a macro-usage argument
// could not be reparsed on its own (spec step of getSymbolAtToken that
// builds a throwaway syntax tree for the argument). The caller is expected
// to fall back to treating the token as having no symbol, not to fail the
// whole analysis.
type MalformedMacroArgError struct {
	Macro string
	Arg   string
}

// Error is an implementation of the error interface.
func (n *MalformedMacroArgError) Error() string {
	return fmt.Sprintf("argument %q of macro usage %q could not be reparsed", n.Arg, n.Macro)
}

// TokenOverlapError indicates that the Syntax Indexer found two tokens
// claiming the same byte range while building tokensInOrder. The Index
// records it (Index.Overlaps) and keeps both tokens; it is never
// propagated to callers.
type TokenOverlapError struct {
	First  entity.Token
	Second entity.Token
}

// Error is an implementation of the error interface.
func (n *TokenOverlapError) Error() string {
	return fmt.Sprintf("token %q at %+v overlaps token %q at %+v", n.First.Raw, n.First.Range, n.Second.Raw, n.Second.Range)
}
