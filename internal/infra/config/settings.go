package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/0x-auth/artreg/internal/app"
	"github.com/0x-auth/artreg/internal/app/config"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// SettingFile is the name of the settings file inside the registry home
const SettingFile = "setting.yaml"

// RawSettings represents the structure of setting.yaml.
// Pointer fields distinguish "unset" from zero values.
type RawSettings struct {
	StorePath        *string `yaml:"store_path"`
	ContentDir       *string `yaml:"content_dir"`
	JournalPath      *string `yaml:"journal_path"`
	StderrLevel      *string `yaml:"stderr_level"`
	Origin           *string `yaml:"origin"`
	ClipboardTimeout *string `yaml:"clipboard_timeout"` // "5s" or seconds
}

// Overrides carries command-line flag values. Empty fields are ignored.
type Overrides struct {
	Home        string
	StderrLevel string
	Origin      string
}

// LoadOptions controls where LoadSettings looks
type LoadOptions struct {
	Fs        afero.Fs                        // defaults to the OS filesystem
	EnvFile   string                          // .env path; empty means ".env" in the working directory
	LookupEnv func(key string) (string, bool) // defaults to os.LookupEnv
	Overrides Overrides
}

// LoadSettings builds the application config.
// Priority: flags > environment (.env fills unset variables) > setting.yaml > defaults
func LoadSettings(opts LoadOptions) (*config.AppConfig, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}

	env, err := newEnvLookup(opts.Fs, opts.EnvFile, opts.LookupEnv)
	if err != nil {
		return nil, err
	}

	home := opts.Overrides.Home
	if home == "" {
		home, _ = env(EnvHome)
	}
	if home == "" {
		home = DefaultHome()
	}

	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	yamlPath := filepath.Join(home, SettingFile)
	data, err := afero.ReadFile(opts.Fs, yamlPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
		configSource = "yaml"
		settingPath = yamlPath
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", yamlPath, err)
	}

	if applyEnv(settings, env) && configSource == "default" {
		configSource = "env"
	}
	applyOverrides(settings, opts.Overrides)
	applyDefaults(settings, home)

	timeout, err := parseTimeout(*settings.ClipboardTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid clipboard_timeout %q: %w", *settings.ClipboardTimeout, err)
	}

	return config.NewAppConfig(
		home,
		*settings.StorePath,
		*settings.ContentDir,
		*settings.JournalPath,
		*settings.StderrLevel,
		*settings.Origin,
		timeout,
		configSource,
		settingPath,
	), nil
}

// DefaultHome is ~/.artreg, or .artreg in the working directory when the
// user home cannot be determined
func DefaultHome() string {
	if dir, err := os.UserHomeDir(); err == nil && dir != "" {
		return filepath.Join(dir, ".artreg")
	}
	return ".artreg"
}

func applyOverrides(settings *RawSettings, o Overrides) {
	if o.StderrLevel != "" {
		v := o.StderrLevel
		settings.StderrLevel = &v
	}
	if o.Origin != "" {
		v := o.Origin
		settings.Origin = &v
	}
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings, home string) {
	paths := app.ResolvePaths(home, "", "")

	if settings.StorePath == nil {
		settings.StorePath = &paths.Store
	}
	if settings.ContentDir == nil {
		settings.ContentDir = &paths.Content
	}
	if settings.JournalPath == nil {
		settings.JournalPath = &paths.Journal
	}
	if settings.StderrLevel == nil {
		v := "warn"
		settings.StderrLevel = &v
	}
	if settings.Origin == nil {
		v := ""
		settings.Origin = &v
	}
	if settings.ClipboardTimeout == nil {
		v := "5s"
		settings.ClipboardTimeout = &v
	}
}

// CreateDefaultSettings renders a setting.yaml with every default filled in
func CreateDefaultSettings(home string) ([]byte, error) {
	settings := &RawSettings{}
	applyDefaults(settings, home)
	return yaml.Marshal(settings)
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := toDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be positive")
	}
	return d, nil
}
