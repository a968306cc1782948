package errors

import (
	stderr "errors"
	"fmt"

	"github.com/svlsp/svls-core/src/svls/entity"
)

// StaleBufferError indicates that a BufferId the Source Manager does not
// know was referenced. Callers that hit this should treat the location as
// unresolvable rather than retry.
type StaleBufferError struct {
	Buffer entity.BufferId
}

// Error is an implementation of the error interface.
func (n *StaleBufferError) Error() string {
	return fmt.Sprintf("buffer %s is no longer retained", n.Buffer)
}

// StaleBuffer returns the offending BufferId and true if a StaleBufferError
// is part of the error chain.
func StaleBuffer(e error) (_ entity.BufferId, ok bool) {
	var sb *StaleBufferError
	if !stderr.As(e, &sb) {
		return entity.InvalidBufferId, false
	}
	return sb.Buffer, true
}

// DependencyMissingError indicates that a lookup needed a symbol or
// document owned by an external driver (the workspace-wide indexer) that
// the Document Driver could not supply — e.g. a cross-file `include or a
// package import whose defining file was never opened.
type DependencyMissingError struct {
	Path string
}

// Error is an implementation of the error interface.
func (n *DependencyMissingError) Error() string {
	return fmt.Sprintf("dependency %q is not available from the document driver", n.Path)
}
