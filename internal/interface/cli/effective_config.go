package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/0x-auth/artreg/internal/app/config"
	"github.com/0x-auth/artreg/internal/buildinfo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// EffectiveConfig is the resolved configuration as printed by `artreg config`
type EffectiveConfig struct {
	Meta    EffectiveConfigMeta    `json:"meta" yaml:"meta"`
	Paths   EffectiveConfigPaths   `json:"paths" yaml:"paths"`
	Logging EffectiveConfigLogging `json:"logging" yaml:"logging"`
	Add     EffectiveConfigAdd     `json:"add" yaml:"add"`
}

// EffectiveConfigMeta records where the values came from
type EffectiveConfigMeta struct {
	Source         string   `json:"source" yaml:"source"`
	SettingPath    string   `json:"setting_path,omitempty" yaml:"setting_path,omitempty"`
	SourcePriority []string `json:"source_priority" yaml:"source_priority"`
	Version        string   `json:"version" yaml:"version"`
}

type EffectiveConfigPaths struct {
	Home       string `json:"home" yaml:"home"`
	Store      string `json:"store" yaml:"store"`
	ContentDir string `json:"content_dir" yaml:"content_dir"`
	Journal    string `json:"journal" yaml:"journal"`
}

type EffectiveConfigLogging struct {
	StderrLevel string `json:"stderr_level" yaml:"stderr_level"`
}

type EffectiveConfigAdd struct {
	Origin           string `json:"origin" yaml:"origin"`
	ClipboardTimeout string `json:"clipboard_timeout" yaml:"clipboard_timeout"`
}

// buildEffectiveConfig flattens cfg for display
func buildEffectiveConfig(cfg config.Config) EffectiveConfig {
	origin := cfg.Origin()
	if origin == "" {
		origin = "manual"
	}
	return EffectiveConfig{
		Meta: EffectiveConfigMeta{
			Source:         cfg.ConfigSource(),
			SettingPath:    cfg.SettingPath(),
			SourcePriority: []string{"flags", "env", ".env", "setting.yaml", "defaults"},
			Version:        buildinfo.GetVersion(),
		},
		Paths: EffectiveConfigPaths{
			Home:       cfg.Home(),
			Store:      cfg.StorePath(),
			ContentDir: cfg.ContentDir(),
			Journal:    cfg.JournalPath(),
		},
		Logging: EffectiveConfigLogging{StderrLevel: cfg.StderrLevel()},
		Add: EffectiveConfigAdd{
			Origin:           origin,
			ClipboardTimeout: cfg.ClipboardTimeout().Round(time.Millisecond).String(),
		},
	}
}

func newConfigCmd(s *session) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			eff := buildEffectiveConfig(s.cfg)
			out := c.OutOrStdout()

			switch format {
			case "yaml", "":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(eff); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(eff)
			default:
				return fmt.Errorf("unsupported format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml|json")
	return cmd
}
