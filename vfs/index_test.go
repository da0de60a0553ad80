package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildIndex(t *testing.T) {
	t.Parallel()

	t.Run("explicit markers", func(t *testing.T) {
		t.Parallel()
		idx := buildIndex(sampleNames)

		assert.Equal(t, []string{"dir1", "dir2", "file1.txt", "file2.txt"}, idx.children[""])
		assert.Equal(t, []string{"file3.txt"}, idx.children["dir1"])
		assert.True(t, idx.isDir(""))
		assert.True(t, idx.isDir("dir1"))
		assert.False(t, idx.isDir("file1.txt"))
		assert.Len(t, idx.files, 4)
		assert.Len(t, idx.entries, len(sampleNames))
	})

	t.Run("implicit directories", func(t *testing.T) {
		t.Parallel()
		idx := buildIndex([]string{"a/b/c.txt"})

		assert.True(t, idx.isDir("a"))
		assert.True(t, idx.isDir("a/b"))
		assert.Equal(t, []string{"a"}, idx.children[""])
		assert.Equal(t, []string{"b"}, idx.children["a"])
		assert.Equal(t, []string{"c.txt"}, idx.children["a/b"])
	})

	t.Run("leading slashes and duplicates", func(t *testing.T) {
		t.Parallel()
		idx := buildIndex([]string{"/etc/", "/etc/hosts", "etc/hosts", "/", ""})

		assert.Equal(t, []string{"etc"}, idx.children[""])
		assert.Equal(t, []string{"hosts"}, idx.children["etc"])
		raw, ok := idx.rawFile("etc/hosts")
		assert.True(t, ok)
		assert.Equal(t, "/etc/hosts", raw)
	})

	t.Run("unclean names", func(t *testing.T) {
		t.Parallel()
		idx := buildIndex([]string{"a//b.txt", "./x.txt", "d/", "d/./e.txt", "d/../", "../up.txt"})

		assert.Equal(t, []string{"a", "d", "up.txt", "x.txt"}, idx.children[""])
		assert.Equal(t, []string{"b.txt"}, idx.children["a"])
		assert.Equal(t, []string{"e.txt"}, idx.children["d"])
		assert.Equal(t, []string{"a/b.txt", "x.txt", "d", "d/e.txt", "up.txt"}, idx.entries)
		raw, ok := idx.rawFile("d/e.txt")
		assert.True(t, ok)
		assert.Equal(t, "d/./e.txt", raw, "reads go through the raw archive name")
	})
}
