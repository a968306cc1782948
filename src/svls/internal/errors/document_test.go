package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "document not found",
			err:  &DocumentNotFoundError{},
		},
		{
			name: "document size limit",
			err:  &DocumentSizeLimitError{},
		},
		{
			name: "invalid range",
			err:  &InvalidRangeError{},
		},
		{
			name: "malformed macro arg",
			err:  &MalformedMacroArgError{},
		},
		{
			name: "token overlap",
			err:  &TokenOverlapError{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.err)
			assert.True(t, len(tt.err.Error()) > 0)
		})
	}
}
