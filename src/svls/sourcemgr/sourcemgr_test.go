package sourcemgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svls-core/src/svls/entity"
	svlserrors "github.com/svlsp/svls-core/src/svls/internal/errors"
)

func TestAssignTextAddsSentinel(t *testing.T) {
	m := New()
	id := m.AssignText("foo.sv", []byte("module foo(); endmodule"))
	text, err := m.Text(id)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), text[len(text)-1])
}

func TestAssignTextReplacingPathInvalidatesOld(t *testing.T) {
	m := New()
	first := m.AssignText("foo.sv", []byte("a"))
	second := m.AssignText("foo.sv", []byte("b"))
	assert.NotEqual(t, first, second)
	assert.False(t, m.IsValid(first))
	assert.True(t, m.IsValid(second))
}

func TestReplaceBufferSameContentReturnsSameID(t *testing.T) {
	m := New()
	id := m.AssignText("foo.sv", []byte("module foo(); endmodule\n"))
	again, err := m.ReplaceBuffer(id, []byte("module foo(); endmodule\n"))
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestReplaceBufferDifferentContentGetsNewID(t *testing.T) {
	m := New()
	id := m.AssignText("foo.sv", []byte("a\n"))
	next, err := m.ReplaceBuffer(id, []byte("b\n"))
	require.NoError(t, err)
	assert.NotEqual(t, id, next)
	assert.False(t, m.IsValid(id))
}

func TestReplaceBufferUnknownID(t *testing.T) {
	m := New()
	_, err := m.ReplaceBuffer(entity.BufferId(999), []byte("x"))
	require.Error(t, err)
	buf, ok := svlserrors.StaleBuffer(err)
	assert.True(t, ok)
	assert.Equal(t, entity.BufferId(999), buf)
}

func TestGetSourceLocationRoundTrip(t *testing.T) {
	m := New()
	id := m.AssignText("foo.sv", []byte("line1\nline2\nline3\n"))
	loc, err := m.GetSourceLocation(id, 2, 3)
	require.NoError(t, err)
	line, err := m.GetLineNumber(loc)
	require.NoError(t, err)
	assert.Equal(t, 2, line)
	col, err := m.GetColumnNumber(loc)
	require.NoError(t, err)
	assert.Equal(t, 3, col)
}

func TestGetSourceLocationOutOfBounds(t *testing.T) {
	m := New()
	id := m.AssignText("foo.sv", []byte("line1\n"))
	_, err := m.GetSourceLocation(id, 99, 1)
	require.Error(t, err)
}

func TestRetentionGuardReleaseIsIdempotent(t *testing.T) {
	m := New()
	id := m.AssignText("foo.sv", []byte("x\n"))
	guard := m.RetainBuffers([]entity.BufferId{id})
	assert.Equal(t, 1, m.RetentionCount(id))
	guard.Release()
	assert.Equal(t, 0, m.RetentionCount(id))
	guard.Release()
	assert.Equal(t, 0, m.RetentionCount(id))
}

func TestMacroFrameRoundTrip(t *testing.T) {
	m := New()
	def := m.AssignText("pkg.svh", []byte("`define M(x) x\n"))
	use := m.AssignText("top.sv", []byte("`M(y)\n"))
	expansion := entity.SourceLocation{Buffer: use, Offset: 1}
	originating := entity.SourceLocation{Buffer: def, Offset: 11}
	m.RecordMacroFrame(entity.MacroFrame{
		Expansion:      expansion,
		Originating:    originating,
		ExpansionRange: entity.SourceRange{Start: expansion, End: entity.SourceLocation{Buffer: use, Offset: 4}},
	})
	assert.Equal(t, originating, m.GetFullyOriginalLoc(expansion))
	assert.Equal(t, []entity.SourceLocation{expansion}, m.GetMacroExpansions(originating))
	rng, ok := m.GetMacroInfo(expansion)
	require.True(t, ok)
	assert.Equal(t, use, rng.Start.Buffer)
}
