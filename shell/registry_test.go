package shell

import (
	"testing"

	"github.com/brettbedarf/shellfs/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, ok := r.Lookup("ls")
	assert.False(t, ok)

	r.Register("hello", func(*vfs.VFS, []string) Result { return Result{Output: "hi"} })
	cmd, ok := r.Lookup("hello")
	require.True(t, ok)
	assert.Equal(t, "hi", cmd(nil, nil).Output)

	r.Register("hello", func(*vfs.VFS, []string) Result { return Result{Output: "replaced"} })
	cmd, _ = r.Lookup("hello")
	assert.Equal(t, "replaced", cmd(nil, nil).Output)
}

func TestRegisterBuiltins(t *testing.T) {
	t.Parallel()

	t.Run("all by default", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		RegisterBuiltins(r)
		assert.Equal(t, []string{"cat", "cd", "exit", "ls", "pwd", "rm", "rmdir", "tree"}, r.Verbs())
	})

	t.Run("subset", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		RegisterBuiltins(r, VerbLs, VerbPwd, "bogus")
		assert.Equal(t, []string{"ls", "pwd"}, r.Verbs())
	})
}
