package shell

import (
	"slices"
	"sync"

	"github.com/brettbedarf/shellfs/vfs"
)

// Result is the outcome of one command line
type Result struct {
	Output string // Text to print, empty for silent success
	Exit   bool   // Session should end
}

// Command runs a verb against the VFS. args excludes the verb itself.
type Command func(v *vfs.VFS, args []string) Result

// Registry maps verbs to commands
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register ties a command to a verb, replacing any previous one
func (r *Registry) Register(verb string, cmd Command) {
	r.mu.Lock()
	r.commands[verb] = cmd
	r.mu.Unlock()
}

// Lookup returns the command registered for verb
func (r *Registry) Lookup(verb string) (Command, bool) {
	r.mu.RLock()
	cmd, ok := r.commands[verb]
	r.mu.RUnlock()
	return cmd, ok
}

// Verbs returns the registered verbs sorted
func (r *Registry) Verbs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	verbs := make([]string, 0, len(r.commands))
	for v := range r.commands {
		verbs = append(verbs, v)
	}
	slices.Sort(verbs)
	return verbs
}
