package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/svlsp/svls-core/src/svls/analysis"
	"github.com/svlsp/svls-core/src/svls/sourcemgr"
	"github.com/svlsp/svls-core/src/svls/svsyntax"
)

type stubDriver struct {
	sm   *sourcemgr.Manager
	deps []analysis.DependentDoc
}

func (d *stubDriver) DependentDocs(*svsyntax.SyntaxTree) []analysis.DependentDoc { return d.deps }
func (d *stubDriver) SourceManager() *sourcemgr.Manager                         { return d.sm }
func (d *stubDriver) Options() analysis.Options                                 { return nil }

func TestFromTextParsesAndAnalyzesLazily(t *testing.T) {
	sm := sourcemgr.New()
	drv := &stubDriver{sm: sm}
	doc := FromText(sm, drv, "top.sv", []byte("module top();\n  logic w;\nendmodule\n"))

	tree, err := doc.GetSyntaxTree()
	require.NoError(t, err)
	assert.Equal(t, doc.Buffer(), tree.Buffer)

	an, err := doc.GetAnalysis(false)
	require.NoError(t, err)
	require.NotNil(t, an)
}

func TestOnChangeReplacesBufferAndInvalidates(t *testing.T) {
	sm := sourcemgr.New()
	drv := &stubDriver{sm: sm}
	doc := FromText(sm, drv, "top.sv", []byte("module top();\nendmodule\n"))

	_, err := doc.GetAnalysis(false)
	require.NoError(t, err)
	oldBuffer := doc.Buffer()

	err = doc.OnChange([]Change{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 7},
			End:   protocol.Position{Line: 0, Character: 10},
		},
		Text: "leaf",
	}})
	require.NoError(t, err)

	assert.NotEqual(t, oldBuffer, doc.Buffer())
	assert.False(t, sm.IsValid(oldBuffer))

	tree, err := doc.GetSyntaxTree()
	require.NoError(t, err)
	assert.Equal(t, "leaf", tree.Root.Children[0].Name.Raw)
}

func TestOnChangeAppliesSecondEditAgainstCumulativeBuffer(t *testing.T) {
	sm := sourcemgr.New()
	drv := &stubDriver{sm: sm}
	doc := FromText(sm, drv, "top.sv", []byte("abcdef\n"))

	err := doc.OnChange([]Change{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 3},
			},
			Text: "XYZ123",
		},
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 6},
				End:   protocol.Position{Line: 0, Character: 9},
			},
			Text: "!",
		},
	})
	require.NoError(t, err)

	matches, err := doc.TextMatches([]byte("XYZ123!\n"))
	require.NoError(t, err)
	assert.True(t, matches)
}

func TestReloadBufferReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "top.sv")
	require.NoError(t, os.WriteFile(path, []byte("module top(); endmodule\n"), 0o644))

	sm := sourcemgr.New()
	drv := &stubDriver{sm: sm}
	doc, err := Open(sm, drv, path)
	require.NoError(t, err)
	oldBuffer := doc.Buffer()

	require.NoError(t, os.WriteFile(path, []byte("module renamed(); endmodule\n"), 0o644))
	require.NoError(t, doc.ReloadBuffer())

	assert.NotEqual(t, oldBuffer, doc.Buffer())
	tree, err := doc.GetSyntaxTree()
	require.NoError(t, err)
	assert.Equal(t, "renamed", tree.Root.Children[0].Name.Raw)
}

func TestIssueDiagnosticsFlagsUnresolvedInstance(t *testing.T) {
	sm := sourcemgr.New()
	drv := &stubDriver{sm: sm}
	doc := FromText(sm, drv, "top.sv", []byte("module top();\n  missing u0();\nendmodule\n"))

	diags, err := doc.IssueDiagnostics(nil)
	require.NoError(t, err)

	var found bool
	for _, d := range diags {
		if d.Code == "unresolved-instance" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTextMatchesComparesIncludingSentinel(t *testing.T) {
	sm := sourcemgr.New()
	drv := &stubDriver{sm: sm}
	doc := FromText(sm, drv, "top.sv", []byte("module top(); endmodule"))

	matches, err := doc.TextMatches([]byte("module top(); endmodule"))
	require.NoError(t, err)
	assert.True(t, matches)

	matches, err = doc.TextMatches([]byte("module top(); endmodule\n"))
	require.NoError(t, err)
	assert.True(t, matches)
}
