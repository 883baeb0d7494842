package di

import (
	"context"
	"fmt"
	"time"

	appconfig "github.com/0x-auth/artreg/internal/app/config"
	"github.com/0x-auth/artreg/internal/infra/journal"
	store "github.com/0x-auth/artreg/internal/infra/repository/artifact"
	"github.com/0x-auth/artreg/internal/interface/external/clipboard"
	"github.com/0x-auth/artreg/internal/usecase/query"
	"github.com/0x-auth/artreg/internal/usecase/registry"
	"github.com/spf13/afero"
)

// ClipboardReader supplies a blob when no file or stdin source is given
type ClipboardReader interface {
	Read(ctx context.Context) (string, error)
}

// Container holds every wired dependency of one command invocation.
// Construction order: infrastructure, then use cases.
type Container struct {
	// Infrastructure Layer
	store     *store.FileStore
	journal   *journal.Writer
	clipboard ClipboardReader

	// Application Layer - Use Cases
	query    *query.Engine
	registry *registry.Service

	config Config
}

// Config holds configuration for the container
type Config struct {
	App       appconfig.Config
	Fs        afero.Fs         // defaults to the OS filesystem
	Now       func() time.Time // defaults to time.Now
	Clipboard ClipboardReader  // defaults to the platform clipboard
}

// NewContainer opens the store and wires the use cases on top of it
func NewContainer(cfg Config) (*Container, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("container requires an application config")
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Container{config: cfg}

	if err := c.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	c.initializeApplication()
	return c, nil
}

func (c *Container) initializeInfrastructure() error {
	s, err := store.Open(c.config.Fs, store.Options{
		StorePath:  c.config.App.StorePath(),
		ContentDir: c.config.App.ContentDir(),
		Now:        c.config.Now,
	})
	if err != nil {
		return err
	}
	c.store = s

	c.journal = journal.NewWriter(c.config.Fs, c.config.App.JournalPath())
	c.journal.Now = c.config.Now

	c.clipboard = c.config.Clipboard
	if c.clipboard == nil {
		c.clipboard = clipboard.NewReader(c.config.App.ClipboardTimeout())
	}
	return nil
}

func (c *Container) initializeApplication() {
	c.registry = registry.NewService(c.store, c.journal, c.config.App.Origin())
	c.registry.Now = c.config.Now
	c.query = c.registry.Query
}

// GetRegistry returns the registry facade
func (c *Container) GetRegistry() *registry.Service { return c.registry }

// GetQueryEngine returns the read-only query engine
func (c *Container) GetQueryEngine() *query.Engine { return c.query }

// GetStore returns the file-backed record store
func (c *Container) GetStore() *store.FileStore { return c.store }

// GetJournal returns the mutation journal writer
func (c *Container) GetJournal() *journal.Writer { return c.journal }

// GetClipboard returns the clipboard blob source
func (c *Container) GetClipboard() ClipboardReader { return c.clipboard }

// GetConfig returns the application config the container was built from
func (c *Container) GetConfig() appconfig.Config { return c.config.App }
