package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/cavaliergopher/cpio"
)

const (
	// cpioTrailer terminates every cpio stream
	cpioTrailer  = "TRAILER!!!"
	cpioTypeMask = 0o170000
)

// OpenCPIO reads the whole cpio (newc) stream at path into memory. cpio has no
// index, so random access by name needs the content buffered. The file handle
// is released before returning.
func OpenCPIO(path string) (*MemArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cpio %s: %w", path, err)
	}
	defer f.Close()

	a, err := ReadCPIO(f)
	if err != nil {
		return nil, fmt.Errorf("read cpio %s: %w", path, err)
	}
	return a, nil
}

// ReadCPIO builds a [MemArchive] from a cpio stream. Directory headers get a
// trailing "/" so they look like zip directory markers; symlinks and device
// nodes are skipped.
func ReadCPIO(r io.Reader) (*MemArchive, error) {
	rdr := cpio.NewReader(r)
	a := NewMemArchive()

	for {
		hdr, err := rdr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		name := strings.TrimPrefix(path.Clean("/"+hdr.Name), "/")
		if name == "" || hdr.Name == cpioTrailer {
			continue
		}

		switch hdr.Mode & cpioTypeMask {
		case cpio.TypeDir:
			a.Add(name+"/", nil)
		case cpio.TypeReg:
			data, err := io.ReadAll(rdr)
			if err != nil {
				return nil, fmt.Errorf("read body for %s: %w", hdr.Name, err)
			}
			a.Add(name, data)
		}
	}

	return a, nil
}
