package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/shellfs"
	"github.com/brettbedarf/shellfs/config"
	"github.com/brettbedarf/shellfs/internal/util"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		user       string
		host       string
		archive    string
		auditLog   string
		script     string
		mnt        string
		verbose    int
		cascade    bool
		umount     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a yaml or json config file")
	flag.StringVar(&user, "user", config.DefaultUser, "User name for the prompt and audit log")
	flag.StringVar(&host, "host", config.DefaultHost, "Host name for the prompt")
	flag.StringVar(&archive, "fs", "", "Path to the .zip or .cpio archive")
	flag.StringVar(&auditLog, "log", config.DefaultAuditLogPath, "Path to the audit log written on exit")
	flag.StringVar(&script, "script", "", "Path to a startup script")
	flag.BoolVar(&cascade, "cascade", config.DefaultCascadeRemove, "rmdir also hides everything below the removed directory")
	flag.StringVar(&mnt, "mount", "", "Serve the archive as a FUSE filesystem at this directory instead of starting a shell")
	flag.BoolVar(&umount, "umount", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	flag.BoolVar(&umount, "u", false, "--umount (shorthand)")
	flag.IntVar(&verbose, "verbose", config.WarnVerbose, "Log verbosity level between 1 (error) and 5 (trace). Default is 2 (warn).")
	flag.IntVar(&verbose, "v", config.WarnVerbose, "--verbose (shorthand)")
	flag.Parse()

	// Initialize logger
	util.InitializeLogger(config.VerboseToLogLevel(verbose))
	logger := util.GetLogger("main")

	cfg := config.NewDefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.NewConfigFromFile(configPath); err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
		logger.Debug().Str("config", configPath).Msg("Config file loaded")
	}

	// Flags given on the command line win over the config file
	override := &config.ConfigOverride{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "user":
			override.User = &user
		case "host":
			override.Host = &host
		case "fs":
			override.ArchivePath = &archive
		case "log":
			override.AuditLogPath = &auditLog
		case "script":
			override.ScriptPath = &script
		case "cascade":
			override.CascadeRemove = &cascade
		case "verbose", "v":
			override.LogLvl = &verbose
		}
	})
	cfg.Merge(override)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	util.InitializeLogger(cfg.LogLvl)
	logger = util.GetLogger("main")
	logger.Info().
		Str("version", shellfs.Version).
		Str("user", cfg.User).
		Str("archive", cfg.ArchivePath).
		Str("mnt", mnt).
		Msg("shellfs initializing")

	if mnt != "" {
		os.Exit(serve(cfg, mnt, umount))
	}
	os.Exit(interactive(cfg))
}

// interactive runs the startup script and then the shell on stdin
func interactive(cfg *config.Config) int {
	logger := util.GetLogger("main.interactive")
	sh := shellfs.NewSession(cfg, os.Stdout)
	if err := sh.VFS().LoadErr(); err != nil {
		fmt.Fprintf(os.Stderr, "shellfs: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling so the audit log is still written
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(signalChan)
	go func() {
		select {
		case sig := <-signalChan:
			logger.Info().Str("signal", sig.String()).Msg("Received signal, closing session")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.ScriptPath != "" {
		if err := sh.RunScript(cfg.ScriptPath); err != nil {
			logger.Error().Err(err).Str("script", cfg.ScriptPath).Msg("Startup script failed")
		}
	}
	if !sh.Exited() {
		if err := sh.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Session ended with error")
		}
	}

	if err := sh.Close(); err != nil {
		return 1
	}
	if ctx.Err() != nil {
		return 130
	}
	return 0
}

// serve mounts the archive and blocks until a termination signal
func serve(cfg *config.Config, mnt string, umount bool) int {
	logger := util.GetLogger("main.serve")
	// Try unmount if requested
	if umount { // send cli command
		cmd := exec.Command("fusermount", "-u", mnt)
		// we ignore error here if not already mounted
		cmd.Run() // nolint:errcheck
	}

	srv, v := shellfs.NewServer(cfg)
	defer v.Close()
	if err := v.LoadErr(); err != nil {
		logger.Error().Err(err).Msg("Serving an empty filesystem")
	}

	done, err := srv.ServeAsync(mnt)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to mount filesystem")
		return 1
	}

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	// Wait for termination signal or an external unmount
	select {
	case <-done:
		logger.Info().Str("mountpoint", mnt).Msg("Filesystem unmounted externally")
		return 0
	case sig := <-signalChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
	}

	// Unmount the filesystem
	if err := srv.Unmount(); err != nil {
		logger.Error().Err(err).Msg("Failed to unmount filesystem")
		return 1
	}
	logger.Info().Msg("Filesystem unmounted successfully")
	return 0
}
