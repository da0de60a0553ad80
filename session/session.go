// Package session drives an interactive shell over a VFS: it prints the
// prompt, records each command for audit and writes command output.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/brettbedarf/shellfs/audit"
	"github.com/brettbedarf/shellfs/config"
	"github.com/brettbedarf/shellfs/internal/util"
	"github.com/brettbedarf/shellfs/shell"
	"github.com/brettbedarf/shellfs/vfs"
)

// Shell is one user session. It is not safe for concurrent use.
type Shell struct {
	User string
	Host string

	vfs        *vfs.VFS
	dispatcher *shell.Dispatcher
	audit      *audit.Logger
	out        io.Writer

	exited    bool
	closeOnce sync.Once
	closeErr  error
}

// New opens the configured archive and audit log and returns a ready
// session writing to out.
func New(cfg *config.Config, out io.Writer) *Shell {
	v := vfs.Open(cfg.ArchivePath, vfs.Options{CascadeRemove: cfg.CascadeRemove})
	a := audit.New(cfg.AuditLogPath, cfg.User, cfg.AuditFormat)
	return NewWith(cfg.User, cfg.Host, v, a, out)
}

// NewWith assembles a session from existing parts. The session owns v and a
// and releases both on Close.
func NewWith(user, host string, v *vfs.VFS, a *audit.Logger, out io.Writer) *Shell {
	return &Shell{
		User:       user,
		Host:       host,
		vfs:        v,
		dispatcher: shell.NewDispatcher(v),
		audit:      a,
		out:        out,
	}
}

// VFS returns the filesystem backing this session
func (s *Shell) VFS() *vfs.VFS {
	return s.vfs
}

// Dispatcher returns the command dispatcher, e.g. to register extra verbs
func (s *Shell) Dispatcher() *shell.Dispatcher {
	return s.dispatcher
}

// Prompt renders "{user}@{host} {path}$ "
func (s *Shell) Prompt() string {
	return s.dispatcher.Prompt(s.User, s.Host)
}

// Exited reports whether an exit command has run
func (s *Shell) Exited() bool {
	return s.exited
}

// Execute records and runs one command line and prints its output. It
// reports whether the session should end.
func (s *Shell) Execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	s.audit.Record(line)
	res := s.dispatcher.Execute(line)
	if res.Output != "" {
		fmt.Fprintln(s.out, res.Output)
	}
	if res.Exit {
		s.exited = true
	}
	return res.Exit
}

// RunScript executes each non-empty line of the script at path, echoing it
// after the prompt. A missing script is reported to the user, not returned.
func (s *Shell) RunScript(path string) error {
	logger := util.GetLogger("Shell.RunScript")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("script", path).Msg("Startup script not found")
			fmt.Fprintf(s.out, "Startup script not found: %s\n", path)
			return nil
		}
		return fmt.Errorf("open startup script: %w", err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fmt.Fprintf(s.out, "%s%s\n", s.Prompt(), line)
		n++
		if s.Execute(line) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read startup script: %w", err)
	}
	logger.Debug().Str("script", path).Int("commands", n).Bool("exited", s.exited).Msg("Startup script finished")
	return nil
}

// Run reads command lines from in until EOF, exit or ctx is done. A
// cancelled ctx ends the session even while it waits for input.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	logger := util.GetLogger("Shell.Run")
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for !s.exited {
		if err := ctx.Err(); err != nil {
			logger.Debug().Err(err).Msg("Session cancelled")
			return err
		}
		fmt.Fprint(s.out, s.Prompt())
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			logger.Debug().Err(ctx.Err()).Msg("Session cancelled while waiting for input")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return <-readErr
			}
			s.Execute(line)
		}
	}
	logger.Debug().Msg("Session exited")
	return nil
}

// Close writes the audit record and releases the archive. Later calls
// return the first result.
func (s *Shell) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = errors.Join(s.audit.Close(), s.vfs.Close())
		if s.closeErr != nil {
			logger := util.GetLogger("Shell.Close")
			logger.Error().Err(s.closeErr).Msg("Failed to close session")
		}
	})
	return s.closeErr
}
