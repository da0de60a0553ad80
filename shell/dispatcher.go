// Package shell turns command lines into VFS operations and Unix-style
// output.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brettbedarf/shellfs/internal/util"
	"github.com/brettbedarf/shellfs/vfs"
)

// Dispatcher routes command lines to registered commands. It holds no path
// state of its own; the VFS is the only source of truth.
type Dispatcher struct {
	vfs      *vfs.VFS
	registry *Registry
}

// NewDispatcher creates a dispatcher with every built-in verb registered
func NewDispatcher(v *vfs.VFS) *Dispatcher {
	r := NewRegistry()
	RegisterBuiltins(r)
	return NewDispatcherWithRegistry(v, r)
}

func NewDispatcherWithRegistry(v *vfs.VFS, r *Registry) *Dispatcher {
	return &Dispatcher{vfs: v, registry: r}
}

// Register adds or replaces a verb
func (d *Dispatcher) Register(verb string, cmd Command) {
	d.registry.Register(verb, cmd)
}

// Execute runs one command line. Blank lines produce empty output.
func (d *Dispatcher) Execute(line string) Result {
	logger := util.GetLogger("Dispatcher.Execute")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Result{}
	}
	verb, args := fields[0], fields[1:]

	cmd, ok := d.registry.Lookup(verb)
	if !ok {
		logger.Debug().Str("verb", verb).Msg("Unknown command")
		return Result{Output: fmt.Sprintf("%s: command not found", verb)}
	}
	logger.Debug().Str("verb", verb).Strs("args", args).Msg("Executing command")
	res := cmd(d.vfs, args)
	logger.Trace().Str("verb", verb).Str("output", res.Output).Bool("exit", res.Exit).Msg("Command finished")
	return res
}

// Prompt renders "{user}@{host} {path}$ " for the current directory
func (d *Dispatcher) Prompt(user, host string) string {
	return fmt.Sprintf("%s@%s %s$ ", user, host, DisplayPath(d.vfs.CurrentPath()))
}

// DisplayPath shows root as "/"
func DisplayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var reasons = []error{
	vfs.ErrNoSuchDirectory,
	vfs.ErrDirectoryNotEmpty,
	vfs.ErrNoSuchFile,
	vfs.ErrNotFound,
	vfs.ErrRootBusy,
	vfs.ErrDecode,
}

// Reason returns the short human-readable cause of a VFS error
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r) {
			return r.Error()
		}
	}
	var pe *vfs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
