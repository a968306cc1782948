package svsyntax

import "github.com/svlsp/svls-core/src/svls/entity"

// SyntaxTree is the parsed form of one buffer, as produced by the external
// parser adapter in package svparser. It is immutable once built; a new
// edit produces a new SyntaxTree over a new BufferId rather than mutating
// this one in place.
type SyntaxTree struct {
	Buffer entity.BufferId
	Root   *Node

	// Macros holds every `define directive found in this buffer, keyed by
	// macro name, in the order the preprocessor would have seen them. It
	// feeds both the Symbol Indexer's macros map and getSymbolAtToken's
	// macro-argument reparse step.
	Macros []*Node

	// Diagnostics are parse-time diagnostics (lexer/grammar errors), kept
	// separate from the semantic diagnostics Shallow Analysis produces.
	Diagnostics []Diagnostic
}

// Diagnostic is a parse-time finding attached to a SyntaxTree. Its shape
// mirrors go.lsp.dev/protocol.Diagnostic closely enough that Document can
// translate directly, but stays decoupled from the LSP wire types so the
// parser package never imports go.lsp.dev/protocol.
type Diagnostic struct {
	Range    entity.SourceRange
	Severity DiagnosticSeverity
	Code     string
	Message  string
}

// DiagnosticSeverity mirrors protocol.DiagnosticSeverity's four levels.
type DiagnosticSeverity int

const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)
