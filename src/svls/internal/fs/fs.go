// Package fs wraps the filesystem operations the app wiring needs for
// ambient setup (creating a log output directory). Document and
// docregistry read source files directly through os.ReadFile /
// sourcemgr rather than through this seam, so it stays small.
package fs

import (
	"os"

	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// FS wraps the filesystem operations used by the application root.
type FS interface {
	MkdirAll(path string) error
}

type fsImpl struct{}

// New creates a new FS.
func New() FS {
	return fsImpl{}
}

// MkdirAll creates a directory and all its parents.
func (fsImpl) MkdirAll(path string) error { return os.MkdirAll(path, os.ModePerm) }
