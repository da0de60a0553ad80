package archive

import (
	"fmt"
	"sync/atomic"
)

// MemArchive is an [Archive] held entirely in memory. It backs the cpio
// reader and is handy for tests.
type MemArchive struct {
	names  []string
	data   map[string][]byte
	closed atomic.Bool
}

var _ Archive = (*MemArchive)(nil)

// NewMemArchive creates an empty [MemArchive]
func NewMemArchive() *MemArchive {
	return &MemArchive{data: make(map[string][]byte)}
}

// NewMemArchiveFromNames creates a [MemArchive] with the given names in order.
// Every non-directory entry gets empty content.
func NewMemArchiveFromNames(names ...string) *MemArchive {
	a := NewMemArchive()
	for _, n := range names {
		a.Add(n, nil)
	}
	return a
}

// Add appends an entry. Names ending in "/" are directory markers. Adding an
// existing name replaces its content but keeps its position.
func (a *MemArchive) Add(name string, content []byte) {
	if _, exists := a.data[name]; !exists {
		a.names = append(a.names, name)
	}
	a.data[name] = content
}

func (a *MemArchive) Names() []string {
	return a.names
}

func (a *MemArchive) ReadFile(name string) ([]byte, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	data, ok := a.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (a *MemArchive) Size(name string) (int64, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}
	data, ok := a.data[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return int64(len(data)), nil
}

// Close marks the archive closed; later reads fail with [ErrClosed]
func (a *MemArchive) Close() error {
	a.closed.Store(true)
	return nil
}

// IsClosed reports whether [MemArchive.Close] has been called
func (a *MemArchive) IsClosed() bool {
	return a.closed.Load()
}
