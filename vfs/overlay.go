package vfs

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
)

// Overlay is the monotonic set of canonical paths simulated as deleted.
// Nothing is ever removed from it.
type Overlay struct {
	paths *xsync.Map[string, struct{}]
}

func newOverlay() *Overlay {
	return &Overlay{paths: xsync.NewMap[string, struct{}]()}
}

// Has reports whether the canonical path p is deleted
func (o *Overlay) Has(p string) bool {
	_, ok := o.paths.Load(p)
	return ok
}

// add marks p as deleted and reports whether it was newly added
func (o *Overlay) add(p string) bool {
	_, loaded := o.paths.LoadOrStore(p, struct{}{})
	return !loaded
}

// Len returns the number of deleted paths
func (o *Overlay) Len() int {
	return o.paths.Size()
}

// Paths returns the deleted paths in sorted order
func (o *Overlay) Paths() []string {
	out := make([]string, 0, o.paths.Size())
	o.paths.Range(func(p string, _ struct{}) bool {
		out = append(out, p)
		return true
	})
	slices.Sort(out)
	return out
}
