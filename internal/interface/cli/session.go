package cli

import (
	"io"
	"os"
	"time"

	"github.com/0x-auth/artreg/internal/app"
	"github.com/0x-auth/artreg/internal/app/config"
	infraConfig "github.com/0x-auth/artreg/internal/infra/config"
	"github.com/0x-auth/artreg/internal/infrastructure/di"
	"github.com/0x-auth/artreg/internal/usecase/registry"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Options injects the environment a command tree runs against.
// Zero values select the real filesystem, stdin, clipboard, and clock.
type Options struct {
	Fs        afero.Fs
	Stdin     io.Reader
	Clipboard di.ClipboardReader
	LookupEnv func(key string) (string, bool)
	EnvFile   string
	Now       func() time.Time
}

// session carries flag values and lazily built dependencies for one invocation
type session struct {
	opts Options

	home     string
	logLevel string

	cfg       config.Config
	container *di.Container
}

func newSession(opts Options) *session {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	return &session{opts: opts}
}

// load resolves configuration and installs the stderr logger
func (s *session) load(cmd *cobra.Command) error {
	cfg, err := infraConfig.LoadSettings(infraConfig.LoadOptions{
		Fs:        s.opts.Fs,
		EnvFile:   s.opts.EnvFile,
		LookupEnv: s.opts.LookupEnv,
		Overrides: infraConfig.Overrides{Home: s.home, StderrLevel: s.logLevel},
	})
	if err != nil {
		return err
	}
	s.cfg = cfg

	app.SetLogger(app.NewLogger(cfg.StderrLevel(), cmd.ErrOrStderr()))
	app.GetLogger().Debug("config source=%s home=%s store=%s", cfg.ConfigSource(), cfg.Home(), cfg.StorePath())
	return nil
}

// registry opens the store on first use
func (s *session) registry() (*registry.Service, error) {
	if s.container == nil {
		c, err := di.NewContainer(di.Config{
			App:       s.cfg,
			Fs:        s.opts.Fs,
			Now:       s.opts.Now,
			Clipboard: s.opts.Clipboard,
		})
		if err != nil {
			return nil, err
		}
		s.container = c
	}
	return s.container.GetRegistry(), nil
}

// journalLocation is resolved after load
func (s *session) journalLocation() (afero.Fs, string) {
	if s.cfg == nil {
		return s.opts.Fs, ""
	}
	return s.opts.Fs, s.cfg.JournalPath()
}
