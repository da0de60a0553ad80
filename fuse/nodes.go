package fuse

import (
	"sync"
	"sync/atomic"

	gofuse "github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"
)

// node is a kernel-visible path. lookups counts the kernel references that
// Forget will eventually release.
type node struct {
	path    string
	lookups atomic.Uint64
}

// nodeRegistry maps session-scoped FUSE node ids to canonical VFS paths.
// Ids are allocated on demand and dropped once the kernel forgets them.
type nodeRegistry struct {
	allocMu sync.Mutex
	lastID  atomic.Uint64
	byID    *xsync.Map[uint64, *node]
	byPath  *xsync.Map[string, uint64]
}

func newNodeRegistry() *nodeRegistry {
	r := &nodeRegistry{
		byID:   xsync.NewMap[uint64, *node](),
		byPath: xsync.NewMap[string, uint64](),
	}
	r.byID.Store(gofuse.FUSE_ROOT_ID, &node{path: ""})
	r.byPath.Store("", gofuse.FUSE_ROOT_ID)
	r.lastID.Store(gofuse.FUSE_ROOT_ID)
	return r
}

// path returns the canonical path registered for id
func (r *nodeRegistry) path(id uint64) (string, bool) {
	n, ok := r.byID.Load(id)
	if !ok {
		return "", false
	}
	return n.path, true
}

// ensure returns the id for p, allocating one if needed, and counts one
// kernel lookup against it.
func (r *nodeRegistry) ensure(p string) uint64 {
	// fast path
	if id, ok := r.byPath.Load(p); ok {
		if n, ok := r.byID.Load(id); ok {
			n.lookups.Add(1)
			return id
		}
	}

	r.allocMu.Lock()
	defer r.allocMu.Unlock()
	if id, ok := r.byPath.Load(p); ok {
		if n, ok := r.byID.Load(id); ok {
			n.lookups.Add(1)
			return id
		}
	}
	id := r.lastID.Add(1)
	n := &node{path: p}
	n.lookups.Store(1)
	r.byID.Store(id, n)
	r.byPath.Store(p, id)
	return id
}

// forget releases nlookup references to id. The root is never released.
func (r *nodeRegistry) forget(id, nlookup uint64) {
	if id == gofuse.FUSE_ROOT_ID {
		return
	}
	r.allocMu.Lock()
	defer r.allocMu.Unlock()
	n, ok := r.byID.Load(id)
	if !ok {
		return
	}
	for {
		cur := n.lookups.Load()
		next := uint64(0)
		if cur > nlookup {
			next = cur - nlookup
		}
		if n.lookups.CompareAndSwap(cur, next) {
			if next == 0 {
				r.byID.Delete(id)
				r.byPath.Delete(n.path)
			}
			return
		}
	}
}

// size returns the number of registered nodes, root included
func (r *nodeRegistry) size() int {
	return r.byID.Size()
}
