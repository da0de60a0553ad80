package fuse

import (
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/shellfs/vfs"
)

const (
	dirMode  = syscall.S_IFDIR | 0o555
	fileMode = syscall.S_IFREG | 0o444
	blkSize  = 4096
)

// newAttr builds read-only attributes for a VFS path. Every node shares
// the mount time since archives carry no timestamps we track.
func newAttr(ino uint64, st vfs.Stat, mtime time.Time) gofuse.Attr {
	attr := gofuse.Attr{
		Ino:   ino,
		Nlink: 1,
		Owner: gofuse.Owner{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		},
		Atime:     uint64(mtime.Unix()),
		Mtime:     uint64(mtime.Unix()),
		Ctime:     uint64(mtime.Unix()),
		Atimensec: uint32(mtime.Nanosecond()),
		Mtimensec: uint32(mtime.Nanosecond()),
		Ctimensec: uint32(mtime.Nanosecond()),
		Blksize:   blkSize,
	}
	switch st.Kind {
	case vfs.KindDir:
		attr.Mode = dirMode
		attr.Nlink = 2
	default:
		attr.Mode = fileMode
		attr.Size = uint64(st.Size)
		attr.Blocks = (attr.Size + 511) / 512
	}
	return attr
}

func direntMode(k vfs.Kind) uint32 {
	if k == vfs.KindDir {
		return syscall.S_IFDIR
	}
	return syscall.S_IFREG
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
