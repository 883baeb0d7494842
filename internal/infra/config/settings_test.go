package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mapEnv(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name        string
		setupFunc   func(t *testing.T, fs afero.Fs)
		envVars     map[string]string
		overrides   Overrides
		wantHome    string
		wantStore   string
		wantLevel   string
		wantOrigin  string
		wantTimeout time.Duration
		wantSource  string
	}{
		{
			name:        "Default values only",
			envVars:     map[string]string{EnvHome: "/h"},
			wantHome:    "/h",
			wantStore:   "/h/registry.json",
			wantLevel:   "warn",
			wantTimeout: 5 * time.Second,
			wantSource:  "env",
		},
		{
			name:        "Flag home without environment",
			overrides:   Overrides{Home: "/flag"},
			wantHome:    "/flag",
			wantStore:   "/flag/registry.json",
			wantLevel:   "warn",
			wantTimeout: 5 * time.Second,
			wantSource:  "default",
		},
		{
			name: "YAML file only",
			setupFunc: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "/y/setting.yaml", "store_path: /data/reg.json\nstderr_level: debug\norigin: conv-1\nclipboard_timeout: 10\n")
			},
			overrides:   Overrides{Home: "/y"},
			wantHome:    "/y",
			wantStore:   "/data/reg.json",
			wantLevel:   "debug",
			wantOrigin:  "conv-1",
			wantTimeout: 10 * time.Second,
			wantSource:  "yaml",
		},
		{
			name: "YAML with ENV override",
			setupFunc: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, "/y/setting.yaml", "stderr_level: debug\norigin: conv-1\n")
			},
			envVars:     map[string]string{EnvHome: "/y", EnvOrigin: "env-origin"},
			wantHome:    "/y",
			wantStore:   "/y/registry.json",
			wantLevel:   "debug",
			wantOrigin:  "env-origin", // ENV overrides YAML
			wantTimeout: 5 * time.Second,
			wantSource:  "yaml", // Source is still YAML since it was loaded
		},
		{
			name:        "Flags override ENV",
			envVars:     map[string]string{EnvHome: "/env", EnvStderrLevel: "error", EnvOrigin: "env"},
			overrides:   Overrides{Home: "/flag", StderrLevel: "info", Origin: "flag"},
			wantHome:    "/flag",
			wantStore:   "/flag/registry.json",
			wantLevel:   "info",
			wantOrigin:  "flag",
			wantTimeout: 5 * time.Second,
			wantSource:  "env",
		},
		{
			name: "DotEnv fills unset variables",
			setupFunc: func(t *testing.T, fs afero.Fs) {
				writeFile(t, fs, ".env", "ARTREG_HOME=/dot\nARTREG_STDERR_LEVEL=info\n")
			},
			envVars:     map[string]string{EnvStderrLevel: "error"},
			wantHome:    "/dot",
			wantStore:   "/dot/registry.json",
			wantLevel:   "error", // process environment wins over .env
			wantTimeout: 5 * time.Second,
			wantSource:  "env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.setupFunc != nil {
				tt.setupFunc(t, fs)
			}

			cfg, err := LoadSettings(LoadOptions{Fs: fs, LookupEnv: mapEnv(tt.envVars), Overrides: tt.overrides})
			require.NoError(t, err)

			assert.Equal(t, tt.wantHome, cfg.Home())
			assert.Equal(t, tt.wantStore, cfg.StorePath())
			assert.Equal(t, filepath.Join(tt.wantHome, "journal.ndjson"), cfg.JournalPath())
			assert.Equal(t, tt.wantLevel, cfg.StderrLevel())
			assert.Equal(t, tt.wantOrigin, cfg.Origin())
			assert.Equal(t, tt.wantTimeout, cfg.ClipboardTimeout())
			assert.Equal(t, tt.wantSource, cfg.ConfigSource())
		})
	}
}

func TestLoadSettings_SettingPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/y/setting.yaml", "content_dir: /bodies\n")

	cfg, err := LoadSettings(LoadOptions{Fs: fs, LookupEnv: mapEnv(nil), Overrides: Overrides{Home: "/y"}})
	require.NoError(t, err)
	assert.Equal(t, "/y/setting.yaml", cfg.SettingPath())
	assert.Equal(t, "/bodies", cfg.ContentDir())
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
	}{
		{"invalid yaml", "/y/setting.yaml", "store_path: [unclosed\n"},
		{"bad timeout", "/y/setting.yaml", "clipboard_timeout: soon\n"},
		{"negative timeout", "/y/setting.yaml", "clipboard_timeout: -1s\n"},
		{"invalid dotenv", ".env", "ARTREG_HOME='unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, tt.path, tt.data)

			_, err := LoadSettings(LoadOptions{Fs: fs, LookupEnv: mapEnv(nil), Overrides: Overrides{Home: "/y"}})
			assert.Error(t, err)
		})
	}
}

func TestCreateDefaultSettings(t *testing.T) {
	data, err := CreateDefaultSettings("/h")
	require.NoError(t, err)

	var raw RawSettings
	require.NoError(t, yaml.Unmarshal(data, &raw))
	require.NotNil(t, raw.StorePath)
	assert.Equal(t, "/h/registry.json", *raw.StorePath)
	require.NotNil(t, raw.StderrLevel)
	assert.Equal(t, "warn", *raw.StderrLevel)
	require.NotNil(t, raw.ClipboardTimeout)
	assert.Equal(t, "5s", *raw.ClipboardTimeout)
}

func TestToDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"5s", 5 * time.Second, false},
		{"1500ms", 1500 * time.Millisecond, false},
		{" 7 ", 7 * time.Second, false},
		{"later", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := toDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, fs afero.Fs, path, data string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(data), 0o644))
}
