package fuse

import (
	"errors"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/shellfs/archive"
	"github.com/brettbedarf/shellfs/vfs"
)

// ToStatus maps VFS errors onto FUSE status codes
func ToStatus(err error) gofuse.Status {
	switch {
	case err == nil:
		return gofuse.OK
	case errors.Is(err, vfs.ErrDirectoryNotEmpty):
		return gofuse.Status(syscall.ENOTEMPTY)
	case errors.Is(err, vfs.ErrNoSuchDirectory),
		errors.Is(err, vfs.ErrNoSuchFile),
		errors.Is(err, vfs.ErrNotFound),
		errors.Is(err, archive.ErrEntryNotFound):
		return gofuse.ENOENT
	case errors.Is(err, vfs.ErrRootBusy):
		return gofuse.EBUSY
	case errors.Is(err, archive.ErrClosed):
		return gofuse.EBADF
	default:
		return gofuse.EIO
	}
}
