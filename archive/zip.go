package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// ZipArchive implements [Archive] on top of archive/zip
type ZipArchive struct {
	rc      *zip.ReadCloser
	names   []string
	entries map[string]*zip.File
	once    sync.Once
	closed  atomic.Bool
}

var _ Archive = (*ZipArchive)(nil)

// OpenZip opens the zip file at path. The handle stays open until
// [ZipArchive.Close].
func OpenZip(path string) (*ZipArchive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}

	a := &ZipArchive{
		rc:      rc,
		names:   make([]string, 0, len(rc.File)),
		entries: make(map[string]*zip.File, len(rc.File)),
	}
	for _, f := range rc.File {
		if _, dup := a.entries[f.Name]; dup {
			continue
		}
		a.names = append(a.names, f.Name)
		a.entries[f.Name] = f
	}
	return a, nil
}

func (a *ZipArchive) Names() []string {
	return a.names
}

func (a *ZipArchive) ReadFile(name string) ([]byte, error) {
	f, err := a.lookup(name)
	if err != nil {
		return nil, err
	}

	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", name, err)
	}
	return data, nil
}

func (a *ZipArchive) Size(name string) (int64, error) {
	f, err := a.lookup(name)
	if err != nil {
		return 0, err
	}
	return int64(f.UncompressedSize64), nil
}

func (a *ZipArchive) Close() (err error) {
	a.once.Do(func() {
		a.closed.Store(true)
		err = a.rc.Close()
	})
	return err
}

func (a *ZipArchive) lookup(name string) (*zip.File, error) {
	if a.closed.Load() {
		return nil, ErrClosed
	}
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return f, nil
}
