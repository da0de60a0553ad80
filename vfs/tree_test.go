package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree(t *testing.T) {
	t.Parallel()

	t.Run("single child uses last connector", func(t *testing.T) {
		t.Parallel()
		v := newSampleVFS(t, Options{})
		require.NoError(t, v.ChangeDirectory("dir1"))

		got, err := v.Tree("")
		require.NoError(t, err)
		assert.Equal(t, "└── file3.txt\n", got)
	})

	t.Run("root", func(t *testing.T) {
		t.Parallel()
		v := newSampleVFS(t, Options{})

		got, err := v.Tree("")
		require.NoError(t, err)
		want := "├── dir1\n" +
			"│   └── file3.txt\n" +
			"├── dir2\n" +
			"│   └── file4.txt\n" +
			"├── file1.txt\n" +
			"└── file2.txt\n"
		assert.Equal(t, want, got)
	})

	t.Run("nested indentation", func(t *testing.T) {
		t.Parallel()
		v := newVFSFromNames(t, Options{}, "a/", "a/b/", "a/b/c.txt", "a/d.txt", "e.txt")

		got, err := v.Tree("/")
		require.NoError(t, err)
		want := "├── a\n" +
			"│   ├── b\n" +
			"│   │   └── c.txt\n" +
			"│   └── d.txt\n" +
			"└── e.txt\n"
		assert.Equal(t, want, got)

		got, err = v.Tree("a")
		require.NoError(t, err)
		want = "├── b\n" +
			"│   └── c.txt\n" +
			"└── d.txt\n"
		assert.Equal(t, want, got)
	})

	t.Run("argument is honoured over current directory", func(t *testing.T) {
		t.Parallel()
		v := newSampleVFS(t, Options{})
		require.NoError(t, v.ChangeDirectory("dir1"))

		got, err := v.Tree("../dir2")
		require.NoError(t, err)
		assert.Equal(t, "└── file4.txt\n", got)
	})

	t.Run("overlay is applied", func(t *testing.T) {
		t.Parallel()
		v := newSampleVFS(t, Options{})
		require.NoError(t, v.RemoveFile("dir1/file3.txt"))
		require.NoError(t, v.RemoveDirectory("dir1"))
		require.NoError(t, v.RemoveFile("file2.txt"))

		got, err := v.Tree("")
		require.NoError(t, err)
		assert.Equal(t, "├── dir2\n│   └── file4.txt\n└── file1.txt\n", got)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		v := newSampleVFS(t, Options{})

		_, err := v.Tree("nope")
		var pe *PathError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, OpTree, pe.Op)
		assert.Equal(t, "nope", pe.Path)
		assert.ErrorIs(t, err, ErrNoSuchDirectory)
	})
}
