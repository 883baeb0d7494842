package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0x-auth/artreg/internal/infra/config"
	"github.com/0x-auth/artreg/internal/infra/persistence/file"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newInitCmd(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the registry home with a default setting.yaml",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			home := s.cfg.Home()
			if err := s.opts.Fs.MkdirAll(home, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", home, err)
			}

			settings, err := config.CreateDefaultSettings(home)
			if err != nil {
				return err
			}
			settingPath := filepath.Join(home, config.SettingFile)
			written, err := writeIfNotExists(s.opts.Fs, settingPath, settings, force)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", settingPath, err)
			}

			// Opening the store creates the document and content directory
			if _, err := s.registry(); err != nil {
				return err
			}

			out := c.OutOrStdout()
			if written {
				fmt.Fprintf(out, "WROTE: %s\n", settingPath)
			} else {
				fmt.Fprintf(out, "SKIP: %s (exists)\n", settingPath)
			}
			fmt.Fprintf(out, "Registry ready at %s\n", s.cfg.StorePath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing setting.yaml")
	return cmd
}

// writeIfNotExists writes data atomically unless path exists and force is false
func writeIfNotExists(fs afero.Fs, path string, data []byte, force bool) (bool, error) {
	if !force {
		_, err := fs.Stat(path)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	if err := file.WriteFileAtomic(fs, path, data); err != nil {
		return false, err
	}
	return true, nil
}
