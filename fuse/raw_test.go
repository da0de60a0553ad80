package fuse

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	gofuse "github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/shellfs/archive"
	"github.com/brettbedarf/shellfs/config"
	"github.com/brettbedarf/shellfs/vfs"
)

func newTestRaw(t *testing.T, cfg *config.Config) *Raw {
	t.Helper()
	a := archive.NewMemArchive()
	a.Add("file1.txt", []byte("hello world"))
	a.Add("dir1/", nil)
	a.Add("dir1/file3.txt", []byte("three"))
	a.Add("dir2/", nil)
	v := vfs.New(a, vfs.Options{})
	t.Cleanup(func() { _ = v.Close() })
	return NewRaw(v, cfg)
}

func lookup(t *testing.T, r *Raw, parent uint64, name string) (gofuse.EntryOut, gofuse.Status) {
	t.Helper()
	var out gofuse.EntryOut
	status := r.Lookup(nil, &gofuse.InHeader{NodeId: parent}, name, &out)
	return out, status
}

func header(id uint64) gofuse.InHeader {
	return gofuse.InHeader{NodeId: id}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)

	out, status := lookup(t, r, gofuse.FUSE_ROOT_ID, "dir1")
	require.Equal(t, gofuse.OK, status)
	assert.NotZero(t, out.NodeId)
	assert.Equal(t, uint32(syscall.S_IFDIR), out.Attr.Mode&syscall.S_IFMT)

	file, status := lookup(t, r, out.NodeId, "file3.txt")
	require.Equal(t, gofuse.OK, status)
	assert.Equal(t, uint32(syscall.S_IFREG), file.Attr.Mode&syscall.S_IFMT)
	assert.Equal(t, uint64(len("three")), file.Attr.Size)

	again, status := lookup(t, r, gofuse.FUSE_ROOT_ID, "dir1")
	require.Equal(t, gofuse.OK, status)
	assert.Equal(t, out.NodeId, again.NodeId)

	_, status = lookup(t, r, gofuse.FUSE_ROOT_ID, "missing")
	assert.Equal(t, gofuse.ENOENT, status)

	_, status = lookup(t, r, file.NodeId, "child")
	assert.Equal(t, gofuse.ENOTDIR, status)

	_, status = lookup(t, r, 9999, "x")
	assert.Equal(t, gofuse.ENOENT, status)
}

func TestForget(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)
	first, _ := lookup(t, r, gofuse.FUSE_ROOT_ID, "file1.txt")
	_, _ = lookup(t, r, gofuse.FUSE_ROOT_ID, "file1.txt")

	r.Forget(first.NodeId, 1)
	_, ok := r.nodes.path(first.NodeId)
	assert.True(t, ok, "one lookup still outstanding")

	r.Forget(first.NodeId, 1)
	_, ok = r.nodes.path(first.NodeId)
	assert.False(t, ok)

	r.Forget(gofuse.FUSE_ROOT_ID, 100)
	_, ok = r.nodes.path(gofuse.FUSE_ROOT_ID)
	assert.True(t, ok)
}

func TestGetAttr(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaultConfig()
	cfg.AttrTimeout = 2.5
	r := newTestRaw(t, cfg)

	var out gofuse.AttrOut
	status := r.GetAttr(nil, &gofuse.GetAttrIn{InHeader: header(gofuse.FUSE_ROOT_ID)}, &out)
	require.Equal(t, gofuse.OK, status)
	assert.Equal(t, uint32(dirMode), out.Attr.Mode)
	assert.Equal(t, uint64(2), out.AttrValid)

	entry, _ := lookup(t, r, gofuse.FUSE_ROOT_ID, "file1.txt")
	status = r.GetAttr(nil, &gofuse.GetAttrIn{InHeader: header(entry.NodeId)}, &out)
	require.Equal(t, gofuse.OK, status)
	assert.Equal(t, uint32(fileMode), out.Attr.Mode)
	assert.Equal(t, uint64(11), out.Attr.Size)

	status = r.GetAttr(nil, &gofuse.GetAttrIn{InHeader: header(424242)}, &out)
	assert.Equal(t, gofuse.ENOENT, status)
}

func TestOpenRead(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)
	entry, _ := lookup(t, r, gofuse.FUSE_ROOT_ID, "file1.txt")

	var open gofuse.OpenOut
	require.Equal(t, gofuse.OK, r.Open(nil, &gofuse.OpenIn{InHeader: header(entry.NodeId)}, &open))
	assert.NotZero(t, open.Fh)

	tests := []struct {
		offset uint64
		size   uint32
		want   string
	}{
		{0, 5, "hello"},
		{6, 100, "world"},
		{11, 4, ""},
		{50, 4, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("offset %d size %d", tt.offset, tt.size), func(t *testing.T) {
			res, status := r.Read(nil, &gofuse.ReadIn{Fh: open.Fh, Offset: tt.offset, Size: tt.size}, make([]byte, tt.size))
			require.Equal(t, gofuse.OK, status)
			got, status := res.Bytes(nil)
			require.Equal(t, gofuse.OK, status)
			assert.Equal(t, tt.want, string(got))
		})
	}

	r.Release(nil, &gofuse.ReleaseIn{Fh: open.Fh})
	_, status := r.Read(nil, &gofuse.ReadIn{Fh: open.Fh, Size: 1}, make([]byte, 1))
	assert.Equal(t, gofuse.EBADF, status)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)
	file, _ := lookup(t, r, gofuse.FUSE_ROOT_ID, "file1.txt")
	dir, _ := lookup(t, r, gofuse.FUSE_ROOT_ID, "dir1")

	var out gofuse.OpenOut
	assert.Equal(t, gofuse.EROFS, r.Open(nil, &gofuse.OpenIn{InHeader: header(file.NodeId), Flags: syscall.O_RDWR}, &out))
	assert.Equal(t, gofuse.EISDIR, r.Open(nil, &gofuse.OpenIn{InHeader: header(dir.NodeId)}, &out))
	assert.Equal(t, gofuse.ENOTDIR, r.OpenDir(nil, &gofuse.OpenIn{InHeader: header(file.NodeId)}, &out))
}

func TestOpenDirReadDir(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)

	var open gofuse.OpenOut
	require.Equal(t, gofuse.OK, r.OpenDir(nil, &gofuse.OpenIn{InHeader: header(gofuse.FUSE_ROOT_ID)}, &open))

	entries, ok := r.dirs.Load(open.Fh)
	require.True(t, ok)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{".", "..", "dir1", "dir2", "file1.txt"}, names)
	assert.Equal(t, uint32(syscall.S_IFREG), entries[4].Mode)

	list := gofuse.NewDirEntryList(make([]byte, 4096), 0)
	require.Equal(t, gofuse.OK, r.ReadDir(nil, &gofuse.ReadIn{Fh: open.Fh}, list))
	assert.Equal(t, uint64(5), list.Offset)

	rest := gofuse.NewDirEntryList(make([]byte, 4096), 3)
	require.Equal(t, gofuse.OK, r.ReadDir(nil, &gofuse.ReadIn{Fh: open.Fh, Offset: 3}, rest))
	assert.Equal(t, uint64(5), rest.Offset)

	r.ReleaseDir(&gofuse.ReleaseIn{Fh: open.Fh})
	assert.Equal(t, gofuse.EBADF, r.ReadDir(nil, &gofuse.ReadIn{Fh: open.Fh}, list))
}

func TestRemoval(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)
	dir1, _ := lookup(t, r, gofuse.FUSE_ROOT_ID, "dir1")
	root := header(gofuse.FUSE_ROOT_ID)

	assert.Equal(t, gofuse.Status(syscall.ENOTEMPTY), r.Rmdir(nil, &root, "dir1"))
	assert.Equal(t, gofuse.ENOTDIR, r.Rmdir(nil, &root, "file1.txt"))
	assert.Equal(t, gofuse.EISDIR, r.Unlink(nil, &root, "dir1"))
	assert.Equal(t, gofuse.ENOENT, r.Unlink(nil, &root, "nope"))

	dirHeader := header(dir1.NodeId)
	require.Equal(t, gofuse.OK, r.Unlink(nil, &dirHeader, "file3.txt"))
	require.Equal(t, gofuse.OK, r.Rmdir(nil, &root, "dir1"))

	_, status := lookup(t, r, gofuse.FUSE_ROOT_ID, "dir1")
	assert.Equal(t, gofuse.ENOENT, status)

	var attr gofuse.AttrOut
	assert.Equal(t, gofuse.ENOENT, r.GetAttr(nil, &gofuse.GetAttrIn{InHeader: dirHeader}, &attr))
	assert.Equal(t, []string{"dir1", "dir1/file3.txt"}, r.vfs.Overlay().Paths())
}

func TestReadOnly(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)
	var entry gofuse.EntryOut
	var attr gofuse.AttrOut
	var create gofuse.CreateOut

	assert.Equal(t, gofuse.EROFS, r.Mkdir(nil, &gofuse.MkdirIn{}, "x", &entry))
	assert.Equal(t, gofuse.EROFS, r.Create(nil, &gofuse.CreateIn{}, "x", &create))
	assert.Equal(t, gofuse.EROFS, r.SetAttr(nil, &gofuse.SetAttrIn{}, &attr))
	assert.Equal(t, gofuse.EROFS, r.Rename(nil, &gofuse.RenameIn{}, "a", "b"))
	_, status := r.Write(nil, &gofuse.WriteIn{}, []byte("x"))
	assert.Equal(t, gofuse.EROFS, status)

	assert.Equal(t, gofuse.EROFS, r.Access(nil, &gofuse.AccessIn{InHeader: header(gofuse.FUSE_ROOT_ID), Mask: gofuse.W_OK}))
	assert.Equal(t, gofuse.OK, r.Access(nil, &gofuse.AccessIn{InHeader: header(gofuse.FUSE_ROOT_ID), Mask: gofuse.R_OK}))
}

func TestStatFs(t *testing.T) {
	t.Parallel()

	r := newTestRaw(t, nil)
	var out gofuse.StatfsOut
	require.Equal(t, gofuse.OK, r.StatFs(nil, &gofuse.InHeader{}, &out))
	assert.Equal(t, uint32(blkSize), out.Bsize)
	assert.Equal(t, uint64(1), out.Files)
}

func TestToStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want gofuse.Status
	}{
		{nil, gofuse.OK},
		{&vfs.PathError{Op: vfs.OpRmdir, Err: vfs.ErrDirectoryNotEmpty}, gofuse.Status(syscall.ENOTEMPTY)},
		{&vfs.PathError{Op: vfs.OpChdir, Err: vfs.ErrNoSuchDirectory}, gofuse.ENOENT},
		{&vfs.PathError{Op: vfs.OpRemove, Err: vfs.ErrNoSuchFile}, gofuse.ENOENT},
		{&vfs.PathError{Op: vfs.OpRead, Err: vfs.ErrNotFound}, gofuse.ENOENT},
		{&vfs.PathError{Op: vfs.OpRmdir, Err: vfs.ErrRootBusy}, gofuse.EBUSY},
		{archive.ErrClosed, gofuse.EBADF},
		{errors.New("other"), gofuse.EIO},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToStatus(tt.err), "%v", tt.err)
	}
}
