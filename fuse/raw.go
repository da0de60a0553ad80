// Package fuse serves a VFS to the kernel through the go-fuse raw protocol
// API. The mount is read-only except that rmdir and unlink feed the
// deletion overlay.
package fuse

import (
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/shellfs/config"
	"github.com/brettbedarf/shellfs/internal/util"
	"github.com/brettbedarf/shellfs/vfs"
)

// Raw implements the low-level FUSE wire protocol on top of a VFS.
// See https://www.man7.org/linux//man-pages/man4/fuse.4.html
type Raw struct {
	gofuse.RawFileSystem
	cfg *config.Config

	// vfsMu serializes every VFS call; the VFS itself is single-threaded
	vfsMu sync.Mutex
	vfs   *vfs.VFS

	nodes  *nodeRegistry
	lastFh atomic.Uint64
	// open file handles
	files *xsync.Map[uint64, []byte]
	// open directory snapshots
	dirs *xsync.Map[uint64, []gofuse.DirEntry]

	mounted time.Time
	server  *gofuse.Server
}

func NewRaw(v *vfs.VFS, cfg *config.Config) *Raw {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Raw{
		RawFileSystem: gofuse.NewDefaultRawFileSystem(),
		cfg:           cfg,
		vfs:           v,
		nodes:         newNodeRegistry(),
		files:         xsync.NewMap[uint64, []byte](),
		dirs:          xsync.NewMap[uint64, []gofuse.DirEntry](),
		mounted:       time.Now(),
	}
}

func (r *Raw) Init(s *gofuse.Server) {
	logger := util.GetLogger("Fuse.Init")
	logger.Debug().Msg("FUSE initialized")
	r.server = s
}

func (r *Raw) OnUnmount() {
	logger := util.GetLogger("Fuse.OnUnmount")
	logger.Info().Msg("FUSE unmounted")
}

func (r *Raw) String() string {
	return "ShellFsRaw"
}

func (r *Raw) stat(p string) (vfs.Stat, error) {
	r.vfsMu.Lock()
	defer r.vfsMu.Unlock()
	return r.vfs.Stat(p)
}

// childPath resolves name inside the directory node parent
func (r *Raw) childPath(parent uint64, name string) (string, gofuse.Status) {
	dir, ok := r.nodes.path(parent)
	if !ok {
		return "", gofuse.ENOENT
	}
	st, err := r.stat(dir)
	if err != nil {
		return "", ToStatus(err)
	}
	if st.Kind != vfs.KindDir {
		return "", gofuse.ENOTDIR
	}
	if dir == "" {
		return name, gofuse.OK
	}
	return dir + "/" + name, gofuse.OK
}

// Access grants read and execute everywhere and refuses writes
func (r *Raw) Access(cancel <-chan struct{}, input *gofuse.AccessIn) gofuse.Status {
	if _, ok := r.nodes.path(input.NodeId); !ok {
		return gofuse.ENOENT
	}
	if input.Mask&gofuse.W_OK != 0 {
		return gofuse.EROFS
	}
	return gofuse.OK
}

// Lookup is called by the kernel when it wants to know about a file inside
// a directory. The child gets a node id that lives until Forget.
func (r *Raw) Lookup(cancel <-chan struct{}, header *gofuse.InHeader, name string, out *gofuse.EntryOut) gofuse.Status {
	logger := util.GetLogger("Fuse.Lookup")
	logger.Trace().Uint64("parent", header.NodeId).Str("name", name).Msg("Lookup called")

	p, status := r.childPath(header.NodeId, name)
	if !status.Ok() {
		return status
	}
	st, err := r.stat(p)
	if err != nil {
		logger.Trace().Str("path", p).Msg("No such entry")
		return ToStatus(err)
	}

	id := r.nodes.ensure(p)
	out.NodeId = id
	out.Attr = newAttr(id, st, r.mounted)
	out.SetEntryTimeout(seconds(r.cfg.EntryTimeout))
	out.SetAttrTimeout(seconds(r.cfg.AttrTimeout))
	return gofuse.OK
}

// Forget is called when the kernel discards entries from its dentry cache.
// It must not do I/O.
func (r *Raw) Forget(nodeid, nlookup uint64) {
	logger := util.GetLogger("Fuse.Forget")
	logger.Trace().Uint64("node", nodeid).Uint64("nlookup", nlookup).Msg("Forget called")
	r.nodes.forget(nodeid, nlookup)
}

func (r *Raw) GetAttr(cancel <-chan struct{}, input *gofuse.GetAttrIn, out *gofuse.AttrOut) gofuse.Status {
	p, ok := r.nodes.path(input.NodeId)
	if !ok {
		return gofuse.ENOENT
	}
	st, err := r.stat(p)
	if err != nil {
		return ToStatus(err)
	}
	out.Attr = newAttr(input.NodeId, st, r.mounted)
	out.SetTimeout(seconds(r.cfg.AttrTimeout))
	return gofuse.OK
}

func (r *Raw) Open(cancel <-chan struct{}, input *gofuse.OpenIn, out *gofuse.OpenOut) gofuse.Status {
	logger := util.GetLogger("Fuse.Open")
	if input.Flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		return gofuse.EROFS
	}
	p, ok := r.nodes.path(input.NodeId)
	if !ok {
		return gofuse.ENOENT
	}

	r.vfsMu.Lock()
	st, err := r.vfs.Stat(p)
	if err == nil && st.Kind == vfs.KindDir {
		r.vfsMu.Unlock()
		return gofuse.EISDIR
	}
	var data []byte
	if err == nil {
		data, err = r.vfs.ReadBytes("/" + p)
	}
	r.vfsMu.Unlock()
	if err != nil {
		logger.Debug().Err(err).Str("path", p).Msg("Open failed")
		return ToStatus(err)
	}

	fh := r.lastFh.Add(1)
	r.files.Store(fh, data)
	out.Fh = fh
	if r.cfg.DirectIO {
		out.OpenFlags |= gofuse.FOPEN_DIRECT_IO
	} else {
		out.OpenFlags |= gofuse.FOPEN_KEEP_CACHE
	}
	logger.Trace().Str("path", p).Uint64("fh", fh).Int("size", len(data)).Msg("Opened file")
	return gofuse.OK
}

func (r *Raw) Read(cancel <-chan struct{}, input *gofuse.ReadIn, buf []byte) (gofuse.ReadResult, gofuse.Status) {
	data, ok := r.files.Load(input.Fh)
	if !ok {
		return nil, gofuse.EBADF
	}
	if input.Offset >= uint64(len(data)) {
		return gofuse.ReadResultData(nil), gofuse.OK
	}
	end := input.Offset + uint64(input.Size)
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return gofuse.ReadResultData(data[input.Offset:end]), gofuse.OK
}

func (r *Raw) Release(cancel <-chan struct{}, input *gofuse.ReleaseIn) {
	r.files.Delete(input.Fh)
}

// OpenDir snapshots the directory listing so ReadDir offsets stay stable
// while the overlay changes underneath.
func (r *Raw) OpenDir(cancel <-chan struct{}, input *gofuse.OpenIn, out *gofuse.OpenOut) gofuse.Status {
	p, ok := r.nodes.path(input.NodeId)
	if !ok {
		return gofuse.ENOENT
	}

	r.vfsMu.Lock()
	st, err := r.vfs.Stat(p)
	if err != nil {
		r.vfsMu.Unlock()
		return ToStatus(err)
	}
	if st.Kind != vfs.KindDir {
		r.vfsMu.Unlock()
		return gofuse.ENOTDIR
	}
	entries := []gofuse.DirEntry{
		{Name: ".", Mode: syscall.S_IFDIR, Ino: input.NodeId},
		{Name: "..", Mode: syscall.S_IFDIR},
	}
	for _, name := range r.vfs.ListAt(p) {
		child := name
		if p != "" {
			child = p + "/" + name
		}
		cst, err := r.vfs.Stat(child)
		if err != nil {
			continue
		}
		entries = append(entries, gofuse.DirEntry{Name: name, Mode: direntMode(cst.Kind)})
	}
	r.vfsMu.Unlock()

	fh := r.lastFh.Add(1)
	r.dirs.Store(fh, entries)
	out.Fh = fh
	logger := util.GetLogger("Fuse.OpenDir")
	logger.Trace().Str("path", p).Int("entries", len(entries)).Msg("Opened directory")
	return gofuse.OK
}

func (r *Raw) ReadDir(cancel <-chan struct{}, input *gofuse.ReadIn, out *gofuse.DirEntryList) gofuse.Status {
	entries, ok := r.dirs.Load(input.Fh)
	if !ok {
		return gofuse.EBADF
	}
	for i := input.Offset; i < uint64(len(entries)); i++ {
		e := entries[i]
		e.Off = i + 1
		if !out.AddDirEntry(e) {
			// buffer full, the kernel asks again from the new offset
			break
		}
	}
	return gofuse.OK
}

func (r *Raw) ReleaseDir(input *gofuse.ReleaseIn) {
	r.dirs.Delete(input.Fh)
}

// Rmdir adds an empty directory to the deletion overlay
func (r *Raw) Rmdir(cancel <-chan struct{}, header *gofuse.InHeader, name string) gofuse.Status {
	logger := util.GetLogger("Fuse.Rmdir")
	p, status := r.childPath(header.NodeId, name)
	if !status.Ok() {
		return status
	}

	r.vfsMu.Lock()
	defer r.vfsMu.Unlock()
	if st, err := r.vfs.Stat(p); err == nil && st.Kind != vfs.KindDir {
		return gofuse.ENOTDIR
	}
	if err := r.vfs.RemoveDirectory("/" + p); err != nil {
		logger.Debug().Err(err).Str("path", p).Msg("Rmdir failed")
		return ToStatus(err)
	}
	logger.Info().Str("path", p).Msg("Directory removed")
	return gofuse.OK
}

// Unlink adds a file to the deletion overlay
func (r *Raw) Unlink(cancel <-chan struct{}, header *gofuse.InHeader, name string) gofuse.Status {
	logger := util.GetLogger("Fuse.Unlink")
	p, status := r.childPath(header.NodeId, name)
	if !status.Ok() {
		return status
	}

	r.vfsMu.Lock()
	defer r.vfsMu.Unlock()
	if st, err := r.vfs.Stat(p); err == nil && st.Kind == vfs.KindDir {
		return gofuse.EISDIR
	}
	if err := r.vfs.RemoveFile("/" + p); err != nil {
		logger.Debug().Err(err).Str("path", p).Msg("Unlink failed")
		return ToStatus(err)
	}
	logger.Info().Str("path", p).Msg("File removed")
	return gofuse.OK
}

func (r *Raw) StatFs(cancel <-chan struct{}, input *gofuse.InHeader, out *gofuse.StatfsOut) gofuse.Status {
	out.Bsize = blkSize
	out.Frsize = blkSize
	out.NameLen = 255
	out.Files = uint64(r.nodes.size())
	return gofuse.OK
}

/* Mutations other than removal are refused */

func (r *Raw) Mkdir(cancel <-chan struct{}, input *gofuse.MkdirIn, name string, out *gofuse.EntryOut) gofuse.Status {
	return gofuse.EROFS
}

func (r *Raw) Create(cancel <-chan struct{}, input *gofuse.CreateIn, name string, out *gofuse.CreateOut) gofuse.Status {
	return gofuse.EROFS
}

func (r *Raw) Write(cancel <-chan struct{}, input *gofuse.WriteIn, data []byte) (uint32, gofuse.Status) {
	return 0, gofuse.EROFS
}

func (r *Raw) SetAttr(cancel <-chan struct{}, input *gofuse.SetAttrIn, out *gofuse.AttrOut) gofuse.Status {
	return gofuse.EROFS
}

func (r *Raw) Rename(cancel <-chan struct{}, input *gofuse.RenameIn, oldName string, newName string) gofuse.Status {
	return gofuse.EROFS
}
