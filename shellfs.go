// Package shellfs emulates a Unix-like shell over a read-only archive.
// Deletions are simulated in memory and never reach the archive.
package shellfs

import (
	"io"

	"github.com/brettbedarf/shellfs/config"
	"github.com/brettbedarf/shellfs/server"
	"github.com/brettbedarf/shellfs/session"
	"github.com/brettbedarf/shellfs/vfs"
)

const Version = "0.1.0"

// NewSession creates an interactive session given your config.
func NewSession(cfg *config.Config, out io.Writer) *session.Shell {
	return session.New(cfg, out)
}

// NewServer opens the configured archive and wraps it in a FUSE server. The
// caller closes the returned VFS after unmounting.
func NewServer(cfg *config.Config) (*server.Server, *vfs.VFS) {
	v := vfs.Open(cfg.ArchivePath, vfs.Options{CascadeRemove: cfg.CascadeRemove})
	return server.New(cfg, v), v
}
