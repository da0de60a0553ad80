// Package archive provides read-only access to the flat entry list of a
// packed archive. Directory entries are reported with a trailing "/" no matter
// which container format backs them.
package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/shellfs/internal/util"
)

var (
	// ErrEntryNotFound is returned when reading a name that is not an entry of
	// the archive.
	ErrEntryNotFound = errors.New("archive: entry not found")
	// ErrUnsupportedFormat is returned by [Open] for unknown file extensions.
	ErrUnsupportedFormat = errors.New("archive: unsupported format")
	// ErrClosed is returned by reads after [Archive.Close].
	ErrClosed = errors.New("archive: closed")
)

// Archive is an immutable backing store of named entries
type Archive interface {
	// Names returns all entry names in archive order. Directory markers end
	// with "/".
	Names() []string

	// ReadFile returns the content of the entry with the exact given name
	ReadFile(name string) ([]byte, error)

	// Size returns the uncompressed size of the entry with the exact given name
	Size(name string) (int64, error)

	// Close releases the underlying handle. Calling it more than once is safe.
	Close() error
}

// Format identifies a supported container format
type Format string

const (
	FormatZip  Format = "zip"
	FormatCPIO Format = "cpio"
)

// DetectFormat picks the container format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".jar":
		return FormatZip, nil
	case ".cpio", ".img":
		return FormatCPIO, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Open opens the archive at path with the backend matching its extension.
func Open(path string) (Archive, error) {
	logger := util.GetLogger("Archive.Open")

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var a Archive
	switch format {
	case FormatZip:
		a, err = OpenZip(path)
	case FormatCPIO:
		a, err = OpenCPIO(path)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("path", path).Str("format", string(format)).Int("entries", len(a.Names())).Msg("Archive opened")
	return a, nil
}
