package errors

import (
	stderr "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDistinctValues(t *testing.T) {
	a := New("boom")
	b := New("boom")
	assert.Equal(t, a.Error(), b.Error())
	assert.False(t, stderr.Is(a, b))
}

func TestErrMissingSymbolIsSentinel(t *testing.T) {
	assert.True(t, stderr.Is(ErrMissingSymbol, ErrMissingSymbol))
	assert.False(t, stderr.Is(New("other"), ErrMissingSymbol))
}
