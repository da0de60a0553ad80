package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      []byte
		want    string
		wantErr bool
	}{
		{"empty", nil, "", false},
		{"ascii", []byte("hello"), "hello", false},
		{"multibyte", []byte("héllo ✓"), "héllo ✓", false},
		{"utf8 bom stripped", []byte("\xef\xbb\xbfhey"), "hey", false},
		{"utf16le bom", []byte{0xff, 0xfe, 'h', 0, 'i', 0}, "hi", false},
		{"utf16be bom", []byte{0xfe, 0xff, 0, 'h', 0, 'i'}, "hi", false},
		{"utf16le surrogate pair", []byte{0xff, 0xfe, 0x3d, 0xd8, 0x00, 0xde}, "\U0001F600", false},
		{"utf16le odd trailing byte", []byte{0xff, 0xfe, 'h', 0, 'i'}, "", true},
		{"utf16le lone high surrogate", []byte{0xff, 0xfe, 'h', 0, 0x00, 0xd8, 'i', 0}, "", true},
		{"utf16le high surrogate at end", []byte{0xff, 0xfe, 'h', 0, 0x00, 0xd8}, "", true},
		{"utf16le lone low surrogate", []byte{0xff, 0xfe, 0x00, 0xdc, 'h', 0}, "", true},
		{"utf16be lone surrogate", []byte{0xfe, 0xff, 0xd8, 0x00, 0, 'h'}, "", true},
		{"utf16 with garbage tail", []byte{0xff, 0xfe, 'h', 0, 0x00, 0xd8, 'i'}, "", true},
		{"invalid sequence", []byte{'a', 0xc3, 0x28}, "", true},
		{"truncated rune", []byte{'a', 0xe2, 0x9c}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeText(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrDecode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
