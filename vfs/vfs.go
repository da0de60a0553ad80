// Package vfs presents a read-only archive as a navigable directory tree
// with a current directory and simulated deletions.
package vfs

import (
	"errors"
	"sync"

	"github.com/brettbedarf/shellfs/archive"
	"github.com/brettbedarf/shellfs/internal/util"
)

// Options tune removal semantics
type Options struct {
	// CascadeRemove also marks every descendant of a removed directory as
	// deleted, including intermediate directories that exist only because
	// deeper entries imply them.
	CascadeRemove bool
}

// Kind distinguishes directories from files in a Stat result
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// Stat describes a live path
type Stat struct {
	Path string // Canonical path, root is ""
	Kind Kind
	Size int64 // Uncompressed size for files, 0 for directories
}

// VFS is a single-session view over an archive. It is not safe for
// concurrent use; callers serialize access.
type VFS struct {
	archive archive.Archive // nil when loading failed
	loadErr error
	idx     *index
	cwd     string // canonical, root is ""
	overlay *Overlay
	opts    Options

	closeOnce sync.Once
	closeErr  error
}

// New builds a VFS over an already opened archive. A nil archive yields an
// empty filesystem.
func New(a archive.Archive, opts Options) *VFS {
	var names []string
	if a != nil {
		names = a.Names()
	}
	v := &VFS{
		archive: a,
		idx:     buildIndex(names),
		overlay: newOverlay(),
		opts:    opts,
	}
	logger := util.GetLogger("VFS.New")
	logger.Debug().
		Int("entries", len(v.idx.entries)).
		Int("dirs", len(v.idx.dirs)).
		Int("files", len(v.idx.files)).
		Bool("cascade", opts.CascadeRemove).
		Msg("Index built")
	return v
}

// Open loads the archive at path. It never fails: when the archive cannot
// be opened the VFS behaves as empty and LoadErr reports the cause.
func Open(path string, opts Options) *VFS {
	logger := util.GetLogger("VFS.Open")
	a, err := archive.Open(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Archive unavailable, continuing with empty filesystem")
		v := New(nil, opts)
		v.loadErr = &LoadError{Path: path, Err: err}
		return v
	}
	logger.Info().Str("path", path).Msg("Archive loaded")
	return New(a, opts)
}

// LoadErr returns the *LoadError recorded by Open, if any
func (v *VFS) LoadErr() error {
	return v.loadErr
}

// Overlay exposes the deletion set
func (v *VFS) Overlay() *Overlay {
	return v.overlay
}

// Close releases the archive. Only the first call has any effect.
func (v *VFS) Close() error {
	v.closeOnce.Do(func() {
		if v.archive == nil {
			return
		}
		v.closeErr = v.archive.Close()
		if v.closeErr != nil {
			logger := util.GetLogger("VFS.Close")
			logger.Error().Err(v.closeErr).Msg("Failed to close archive")
		}
	})
	return v.closeErr
}

// CurrentPath returns the current directory as "/a/b". Root is the empty
// string.
func (v *VFS) CurrentPath() string {
	return display(v.cwd)
}

// ListDirectory returns the live children of the current directory
func (v *VFS) ListDirectory() []string {
	return v.ListAt(v.cwd)
}

// ListAt returns the sorted live children of dir, taken relative to root.
// Missing or deleted directories list as empty.
func (v *VFS) ListAt(dir string) []string {
	dir = canonical(dir)
	if !v.dirLive(dir) {
		return []string{}
	}
	children := v.idx.children[dir]
	out := make([]string, 0, len(children))
	for _, name := range children {
		if v.overlay.Has(join(dir, name)) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// List lists p resolved against the current directory. An empty p lists
// the current directory.
func (v *VFS) List(p string) ([]string, error) {
	if p == "" {
		return v.ListDirectory(), nil
	}
	dir := resolve(v.cwd, p)
	if !v.dirLive(dir) {
		return nil, newPathError(OpList, p, ErrNoSuchDirectory)
	}
	return v.ListAt(dir), nil
}

// ChangeDirectory moves the current directory. The current directory is
// left untouched on failure.
func (v *VFS) ChangeDirectory(p string) error {
	logger := util.GetLogger("VFS.ChangeDirectory")
	switch p {
	case ".":
		return nil
	case "/":
		v.cwd = ""
		return nil
	}
	target := resolve(v.cwd, p)
	if !v.dirLive(target) {
		logger.Debug().Str("path", p).Str("resolved", target).Msg("No such directory")
		return newPathError(OpChdir, p, ErrNoSuchDirectory)
	}
	logger.Trace().Str("from", v.cwd).Str("to", target).Msg("Changed directory")
	v.cwd = target
	return nil
}

// DirectoryExists reports whether p names a live directory. p is taken
// relative to root, never to the current directory. Root always exists.
func (v *VFS) DirectoryExists(p string) bool {
	return v.dirLive(canonical(p))
}

// FileExists reports whether p names a live file, relative to root
func (v *VFS) FileExists(p string) bool {
	return v.fileLive(canonical(p))
}

func (v *VFS) dirLive(c string) bool {
	if c == "" {
		return true
	}
	return !v.overlay.Has(c) && v.idx.isDir(c)
}

func (v *VFS) fileLive(c string) bool {
	if c == "" || v.overlay.Has(c) {
		return false
	}
	_, ok := v.idx.rawFile(c)
	return ok
}

// ReadFile returns the text content of name resolved against the current
// directory.
func (v *VFS) ReadFile(name string) (string, error) {
	logger := util.GetLogger("VFS.ReadFile")
	data, err := v.readBytes(name)
	if err != nil {
		return "", err
	}
	text, err := decodeText(data)
	if err != nil {
		logger.Debug().Err(err).Str("name", name).Msg("Undecodable content")
		return "", newPathError(OpRead, name, err)
	}
	return text, nil
}

// ReadBytes returns the raw content of name resolved against the current
// directory.
func (v *VFS) ReadBytes(name string) ([]byte, error) {
	return v.readBytes(name)
}

func (v *VFS) readBytes(name string) ([]byte, error) {
	target := resolve(v.cwd, name)
	if !v.fileLive(target) || v.archive == nil {
		return nil, newPathError(OpRead, name, ErrNotFound)
	}
	raw, _ := v.idx.rawFile(target)
	data, err := v.archive.ReadFile(raw)
	if err != nil {
		logger := util.GetLogger("VFS.ReadFile")
		logger.Error().Err(err).Str("entry", raw).Msg("Archive read failed")
		if errors.Is(err, archive.ErrEntryNotFound) {
			return nil, newPathError(OpRead, name, ErrNotFound)
		}
		return nil, newPathError(OpRead, name, err)
	}
	return data, nil
}

// RemoveDirectory marks an empty directory as deleted. A directory is
// empty when every archive entry below it is already deleted.
func (v *VFS) RemoveDirectory(p string) error {
	logger := util.GetLogger("VFS.RemoveDirectory")
	target := resolve(v.cwd, p)
	if target == "" {
		return newPathError(OpRmdir, p, ErrRootBusy)
	}
	if !v.dirLive(target) {
		return newPathError(OpRmdir, p, ErrNoSuchDirectory)
	}
	for _, e := range v.idx.entries {
		if isUnder(e, target) && !v.overlay.Has(e) {
			logger.Debug().Str("dir", target).Str("entry", e).Msg("Directory not empty")
			return newPathError(OpRmdir, p, ErrDirectoryNotEmpty)
		}
	}

	v.overlay.add(target)
	if v.opts.CascadeRemove {
		v.cascade(target)
	}
	if v.cwd == target || isUnder(v.cwd, target) {
		v.cwd = parent(target)
	}
	logger.Debug().Str("dir", target).Int("overlay", v.overlay.Len()).Msg("Directory removed")
	return nil
}

func (v *VFS) cascade(dir string) {
	for _, e := range v.idx.entries {
		if isUnder(e, dir) {
			v.overlay.add(e)
		}
	}
	for d := range v.idx.dirs {
		if isUnder(d, dir) {
			v.overlay.add(d)
		}
	}
}

// RemoveFile marks a file as deleted
func (v *VFS) RemoveFile(p string) error {
	target := resolve(v.cwd, p)
	if !v.fileLive(target) {
		return newPathError(OpRemove, p, ErrNoSuchFile)
	}
	v.overlay.add(target)
	logger := util.GetLogger("VFS.RemoveFile")
	logger.Debug().Str("file", target).Msg("File removed")
	return nil
}

// Stat describes the live path p, taken relative to root. Directories win
// when an archive holds both a file and a directory of the same name.
func (v *VFS) Stat(p string) (Stat, error) {
	c := canonical(p)
	if v.dirLive(c) {
		return Stat{Path: c, Kind: KindDir}, nil
	}
	if !v.fileLive(c) || v.archive == nil {
		return Stat{}, newPathError(OpStat, p, ErrNotFound)
	}
	raw, _ := v.idx.rawFile(c)
	size, err := v.archive.Size(raw)
	if err != nil {
		return Stat{}, newPathError(OpStat, p, err)
	}
	return Stat{Path: c, Kind: KindFile, Size: size}, nil
}
