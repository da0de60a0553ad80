package vfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF16BE = []byte{0xfe, 0xff}

	errOddLength     = errors.New("utf-16: odd number of bytes")
	errLoneSurrogate = errors.New("utf-16: unpaired surrogate")
)

// textDecoder picks a decoder from the byte order mark, if any. Without one
// the content must be strictly valid UTF-8. UTF-16 content must pass
// checkUTF16 before it reaches the x/text decoder, which never fails.
func textDecoder(data []byte) (transform.Transformer, []byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return encoding.UTF8Validator, data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		if err := checkUTF16(data[len(bomUTF16LE):], binary.LittleEndian); err != nil {
			return nil, nil, err
		}
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), data, nil
	case bytes.HasPrefix(data, bomUTF16BE):
		if err := checkUTF16(data[len(bomUTF16BE):], binary.BigEndian); err != nil {
			return nil, nil, err
		}
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), data, nil
	}
	return encoding.UTF8Validator, data, nil
}

// checkUTF16 fails on an odd byte count or any surrogate that is not part
// of a high/low pair.
func checkUTF16(data []byte, order binary.ByteOrder) error {
	if len(data)%2 != 0 {
		return errOddLength
	}
	for i := 0; i < len(data); i += 2 {
		u := rune(order.Uint16(data[i:]))
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u >= 0xdc00 || i+2 >= len(data) {
			return errLoneSurrogate
		}
		lo := rune(order.Uint16(data[i+2:]))
		if lo < 0xdc00 || lo > 0xdfff {
			return errLoneSurrogate
		}
		i += 2
	}
	return nil
}

// decodeText converts archive bytes to text without ever substituting
// replacement characters for invalid input.
func decodeText(data []byte) (string, error) {
	dec, data, err := textDecoder(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return string(out), nil
}
