package server

import (
	gofuse "github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/shellfs/config"
	sfuse "github.com/brettbedarf/shellfs/fuse"
	"github.com/brettbedarf/shellfs/internal/util"
	"github.com/brettbedarf/shellfs/vfs"
)

// Server mounts a VFS as a read-only FUSE filesystem
type Server struct {
	raw    *sfuse.Raw
	cfg    *config.Config
	server *gofuse.Server
}

// New creates a Server for v given your config.
func New(cfg *config.Config, v *vfs.VFS) *Server {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Server{
		raw: sfuse.NewRaw(v, cfg),
		cfg: cfg,
	}
}

// MountOptions translates the config into go-fuse mount options
func MountOptions(cfg *config.Config) *gofuse.MountOptions {
	opts := cfg.MountOptions
	return &gofuse.MountOptions{
		Name:   opts.Name,
		FsName: opts.FsName,
		Debug:  opts.Debug || cfg.LogLvl == util.TraceLevel,
		Logger: util.NewLogLogger("FuseServer", util.DebugLevel),
	}
}

// Serve mounts and serves the filesystem at the given mountPoint. It returns
// once the mount is ready.
func (s *Server) Serve(mountPoint string) error {
	logger := util.GetLogger("Server.Serve")
	srv, err := gofuse.NewServer(s.raw, mountPoint, MountOptions(s.cfg))
	if err != nil {
		logger.Error().Err(err).Str("mountpoint", mountPoint).Msg("Failed to create FUSE server")
		return err
	}
	s.server = srv

	go srv.Serve()
	return srv.WaitMount()
}

// ServeAsync mounts like Serve and returns a channel that is closed once the
// filesystem is unmounted, either by Unmount or externally via fusermount.
func (s *Server) ServeAsync(mountPoint string) (<-chan struct{}, error) {
	if err := s.Serve(mountPoint); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	return done, nil
}

// Wait blocks until the filesystem is unmounted
func (s *Server) Wait() {
	if s.server == nil {
		return
	}
	s.server.Wait()
}

// Unmount cleanly unmounts the filesystem.
func (s *Server) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}
