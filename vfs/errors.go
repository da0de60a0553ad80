package vfs

import (
	"errors"
	"fmt"
)

// Reason strings are shown to shell users verbatim.
var (
	// ErrNotFound indicates a read of a path that is absent or deleted
	ErrNotFound = errors.New("No such file")
	// ErrNoSuchFile indicates a file removal target that is absent or deleted
	ErrNoSuchFile = errors.New("No such file")
	// ErrNoSuchDirectory indicates a directory that is absent or deleted
	ErrNoSuchDirectory = errors.New("No such directory")
	// ErrDirectoryNotEmpty indicates a directory that still has live entries
	ErrDirectoryNotEmpty = errors.New("Directory not empty")
	// ErrDecode indicates file content that is not valid text
	ErrDecode = errors.New("cannot decode file content")
	// ErrRootBusy indicates an attempt to remove the root directory
	ErrRootBusy = errors.New("Device or resource busy")
)

// Operation names for consistent logging and error reporting
const (
	OpList   = "ls"
	OpChdir  = "cd"
	OpRead   = "read"
	OpRmdir  = "rmdir"
	OpRemove = "rm"
	OpTree   = "tree"
	OpStat   = "stat"
)

// PathError records a failed operation together with the path exactly as
// the caller supplied it.
type PathError struct {
	Op   string // Operation that failed, see the Op constants
	Path string // Path as requested, before resolution
	Err  error  // One of the sentinel errors, possibly wrapped
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// LoadError records why the backing archive could not be opened. A VFS with
// a load error behaves as an empty archive.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load archive %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}
