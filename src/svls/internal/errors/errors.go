// Package errors collects the typed error values returned by the
// per-document analysis core: small `*XxxError` structs implementing
// error, detected downstream with errors.As rather than string matching.
package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

// ErrMissingSymbol is a sentinel, not a typed error: callers of
// getSymbolAtToken and similar lookups are expected to treat "no symbol
// here" as a normal, frequent outcome and return a nil *entity.Symbol
// rather than propagating an error up the call stack. It exists only so
// internal helpers have a uniform way to signal the case to each other.
var ErrMissingSymbol = New("no symbol at this token")
