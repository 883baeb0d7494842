package config

import "time"

// Config provides read-only access to application configuration.
// The app layer sees only this interface, never the sources behind it
// (setting.yaml, environment, .env, flags, defaults).
type Config interface {
	// Locations
	Home() string        // Registry home (ARTREG_HOME)
	StorePath() string   // Store document, default <home>/registry.json
	ContentDir() string  // Artifact bodies, default <home>/artifacts
	JournalPath() string // Mutation journal, default <home>/journal.ndjson

	// Behavior
	StderrLevel() string              // Stderr log level (ARTREG_STDERR_LEVEL)
	Origin() string                   // Default origin id for add (ARTREG_ORIGIN)
	ClipboardTimeout() time.Duration // Bound on one clipboard read

	// Metadata
	ConfigSource() string // "yaml", "env", or "default"
	SettingPath() string  // Path to setting.yaml if one was loaded
}

// AppConfig is the concrete implementation of Config
type AppConfig struct {
	home        string
	storePath   string
	contentDir  string
	journalPath string

	stderrLevel      string
	origin           string
	clipboardTimeout time.Duration

	configSource string
	settingPath  string
}

// NewAppConfig creates a new AppConfig with the given values
func NewAppConfig(
	home, storePath, contentDir, journalPath string,
	stderrLevel, origin string,
	clipboardTimeout time.Duration,
	configSource, settingPath string,
) *AppConfig {
	return &AppConfig{
		home:             home,
		storePath:        storePath,
		contentDir:       contentDir,
		journalPath:      journalPath,
		stderrLevel:      stderrLevel,
		origin:           origin,
		clipboardTimeout: clipboardTimeout,
		configSource:     configSource,
		settingPath:      settingPath,
	}
}

func (c *AppConfig) Home() string                    { return c.home }
func (c *AppConfig) StorePath() string               { return c.storePath }
func (c *AppConfig) ContentDir() string              { return c.contentDir }
func (c *AppConfig) JournalPath() string             { return c.journalPath }
func (c *AppConfig) StderrLevel() string             { return c.stderrLevel }
func (c *AppConfig) Origin() string                  { return c.origin }
func (c *AppConfig) ClipboardTimeout() time.Duration { return c.clipboardTimeout }
func (c *AppConfig) ConfigSource() string            { return c.configSource }
func (c *AppConfig) SettingPath() string             { return c.settingPath }
