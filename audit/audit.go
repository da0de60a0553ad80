// Package audit records every command entered during a session and writes
// the record out once when the session closes.
package audit

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/shellfs/config"
	"github.com/brettbedarf/shellfs/internal/util"
)

// TimeLayout is the per-action timestamp format
const TimeLayout = "2006-01-02 15:04:05"

// Action is one recorded command line
type Action struct {
	XMLName xml.Name `xml:"action" yaml:"-" json:"-"`
	User    string   `xml:"user" yaml:"user" json:"user"`
	Time    string   `xml:"time" yaml:"time" json:"time"`
	Command string   `xml:"command" yaml:"command" json:"command"`
}

// Session is the document written on close
type Session struct {
	XMLName xml.Name `xml:"session" yaml:"-" json:"-"`
	ID      string   `xml:"id,attr" yaml:"id" json:"id"`
	User    string   `xml:"user,attr" yaml:"user" json:"user"`
	Started string   `xml:"started,attr" yaml:"started" json:"started"`
	Actions []Action `xml:"action" yaml:"actions" json:"actions"`
}

// Logger accumulates actions in memory. It is safe for concurrent use.
type Logger struct {
	path    string
	format  config.AuditFormat
	user    string
	id      uuid.UUID
	started time.Time
	now     func() time.Time

	mu      sync.Mutex
	actions []Action
	closed  bool
}

// New creates a logger that writes to path on Close. An empty path keeps
// the record in memory only.
func New(path, user string, format config.AuditFormat) *Logger {
	l := &Logger{
		path:    path,
		format:  format,
		user:    user,
		id:      uuid.New(),
		started: time.Now(),
		now:     time.Now,
	}
	logger := util.GetLogger("Audit.New")
	logger.Debug().
		Str("session", l.id.String()).
		Str("user", user).
		Str("path", path).
		Str("format", format).
		Msg("Audit session started")
	return l
}

// SessionID identifies this session in the written record
func (l *Logger) SessionID() uuid.UUID {
	return l.id
}

// Record appends a command. Calls after Close are ignored.
func (l *Logger) Record(command string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		logger := util.GetLogger("Audit.Record")
		logger.Warn().Str("command", command).Msg("Audit log already closed, dropping action")
		return
	}
	l.actions = append(l.actions, Action{
		User:    l.user,
		Time:    l.now().Format(TimeLayout),
		Command: command,
	})
}

// Actions returns a copy of the recorded actions
func (l *Logger) Actions() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// Snapshot returns the session document as it would be written now
func (l *Logger) Snapshot() Session {
	return Session{
		ID:      l.id.String(),
		User:    l.user,
		Started: l.started.Format(time.RFC3339),
		Actions: l.Actions(),
	}
}

// Close writes the record to the configured path. Only the first call
// writes; later calls return nil.
func (l *Logger) Close() error {
	logger := util.GetLogger("Audit.Close")
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if l.path == "" {
		return nil
	}
	f, err := os.Create(l.path)
	if err != nil {
		logger.Error().Err(err).Str("path", l.path).Msg("Failed to create audit log")
		return fmt.Errorf("create audit log: %w", err)
	}
	snap := l.Snapshot()
	if err := Encode(f, snap, l.format); err != nil {
		_ = f.Close()
		logger.Error().Err(err).Str("path", l.path).Msg("Failed to write audit log")
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audit log: %w", err)
	}
	logger.Info().Str("path", l.path).Int("actions", len(snap.Actions)).Msg("Audit log written")
	return nil
}

// Encode writes s to w in the given format
func Encode(w io.Writer, s Session, format config.AuditFormat) error {
	switch format {
	case config.AuditXML, "":
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode xml audit log: %w", err)
		}
		_, err := io.WriteString(w, "\n")
		return err
	case config.AuditYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml audit log: %w", err)
		}
		return enc.Close()
	case config.AuditJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode json audit log: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported audit format %q", format)
	}
}
