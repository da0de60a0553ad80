package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/shellfs/internal/util"
)

// CLI verbosity values. Higher is chattier; see [Config.Merge] for the mapping
// onto [util.LogLevel].
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// AuditFormat selects the encoding of the session audit record
type AuditFormat = string

const (
	AuditXML  AuditFormat = "xml"
	AuditYAML AuditFormat = "yaml"
	AuditJSON AuditFormat = "json"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultUser         = "user"
	DefaultHost         = "localhost"
	DefaultAuditLogPath = "session.xml"
	DefaultAuditFormat  = AuditXML
	DefaultLogLvl       = util.WarnLevel

	// DefaultCascadeRemove keeps rmdir non-recursive: only the directory's own
	// path goes into the overlay.
	DefaultCascadeRemove = false

	DefaultFsName = "shellfs"
	DefaultName   = "shellfs"

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0

	// DefaultDirectIO determines whether to bypass page cache for archive files
	DefaultDirectIO = false
)

// Config contains runtime configuration values for a shell session.
type Config struct {
	MountOptions

	User          string        // Session user shown in the prompt and audit log (Default "user")
	Host          string        // Host shown in the prompt (Default "localhost")
	ArchivePath   string        // Backing .zip or .cpio archive
	AuditLogPath  string        // Audit record destination written on close (Default "session.xml")
	AuditFormat   AuditFormat   // xml, yaml or json (Default xml)
	ScriptPath    string        // Optional startup script run before the interactive loop
	CascadeRemove bool          // rmdir also overlays the directory's descendants (Default false)
	LogLvl        util.LogLevel // Internal log level (Default warn)

	// NOTE: FUSE view settings, only used with --mount

	AttrTimeout  float64 // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout float64 // Directory entry cache timeout in seconds (Default 1.0)
	DirectIO     bool    // Whether to bypass page cache for archive files (Default false)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
//
// LogLvl is a CLI style verbosity between 1 (error) and 5 (trace).
type ConfigOverride struct {
	User          *string  `yaml:"user,omitempty" json:"user,omitempty"`
	Host          *string  `yaml:"host,omitempty" json:"host,omitempty"`
	ArchivePath   *string  `yaml:"archive,omitempty" json:"archive,omitempty"`
	AuditLogPath  *string  `yaml:"audit_log,omitempty" json:"audit_log,omitempty"`
	AuditFormat   *string  `yaml:"audit_format,omitempty" json:"audit_format,omitempty"`
	ScriptPath    *string  `yaml:"script,omitempty" json:"script,omitempty"`
	CascadeRemove *bool    `yaml:"cascade_remove,omitempty" json:"cascade_remove,omitempty"`
	LogLvl        *int     `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	FsName        *string  `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name          *string  `yaml:"name,omitempty" json:"name,omitempty"`
	Debug         *bool    `yaml:"debug,omitempty" json:"debug,omitempty"`
	AttrTimeout   *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout  *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	DirectIO      *bool    `yaml:"direct_io,omitempty" json:"direct_io,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		User:          DefaultUser,
		Host:          DefaultHost,
		AuditLogPath:  DefaultAuditLogPath,
		AuditFormat:   DefaultAuditFormat,
		CascadeRemove: DefaultCascadeRemove,
		LogLvl:        DefaultLogLvl,
		AttrTimeout:   DefaultAttrTimeout,
		EntryTimeout:  DefaultEntryTimeout,
		DirectIO:      DefaultDirectIO,
	}
}

// NewConfig returns the defaults with override applied. A nil override
// yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	c.User = util.ValueOr(override.User, c.User)
	c.Host = util.ValueOr(override.Host, c.Host)
	c.ArchivePath = util.ValueOr(override.ArchivePath, c.ArchivePath)
	c.AuditLogPath = util.ValueOr(override.AuditLogPath, c.AuditLogPath)
	c.ScriptPath = util.ValueOr(override.ScriptPath, c.ScriptPath)
	c.CascadeRemove = util.ValueOr(override.CascadeRemove, c.CascadeRemove)
	c.FsName = util.ValueOr(override.FsName, c.FsName)
	c.Name = util.ValueOr(override.Name, c.Name)
	c.Debug = util.ValueOr(override.Debug, c.Debug)
	c.AttrTimeout = util.ValueOr(override.AttrTimeout, c.AttrTimeout)
	c.EntryTimeout = util.ValueOr(override.EntryTimeout, c.EntryTimeout)
	c.DirectIO = util.ValueOr(override.DirectIO, c.DirectIO)
	if override.AuditFormat != nil {
		c.AuditFormat = strings.ToLower(*override.AuditFormat)
	}
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
}

// Validate reports settings that cannot be used to start a session
func (c *Config) Validate() error {
	switch c.AuditFormat {
	case AuditXML, AuditYAML, AuditJSON:
	default:
		return fmt.Errorf("unknown audit format: %q", c.AuditFormat)
	}
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("user must not be empty")
	}
	return nil
}

// VerboseToLogLevel clamps a CLI verbosity to 1..5 and maps it onto a
// [util.LogLevel].
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
