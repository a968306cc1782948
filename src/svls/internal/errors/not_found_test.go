package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/svlsp/svls-core/src/svls/entity"
)

func TestStaleBuffer(t *testing.T) {
	buf := entity.BufferId(7)
	err := &StaleBufferError{Buffer: buf}
	assert.Equal(t, "buffer buffer#7 is no longer retained", err.Error())
}

func TestIsStaleBuffer(t *testing.T) {
	buf := entity.BufferId(3)
	tests := []struct {
		name    string
		err     error
		wantOK  bool
		wantBuf entity.BufferId
	}{
		{
			name:    "stale buffer",
			err:     &StaleBufferError{Buffer: buf},
			wantOK:  true,
			wantBuf: buf,
		},
		{
			name:    "random error",
			err:     New("err"),
			wantOK:  false,
			wantBuf: entity.InvalidBufferId,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StaleBuffer(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBuf, got)
		})
	}
}

func TestDependencyMissingError(t *testing.T) {
	err := &DependencyMissingError{Path: "pkg_foo.sv"}
	assert.Equal(t, `dependency "pkg_foo.sv" is not available from the document driver`, err.Error())
}
