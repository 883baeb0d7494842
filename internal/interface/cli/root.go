package cli

import (
	"fmt"

	"github.com/0x-auth/artreg/internal/interface/cli/journal"
	"github.com/0x-auth/artreg/internal/interface/cli/version"
	"github.com/spf13/cobra"
)

// NewRoot builds the artreg command tree on the real environment
func NewRoot() *cobra.Command {
	return NewRootWithOptions(Options{})
}

// NewRootWithOptions builds the command tree with injected collaborators
func NewRootWithOptions(opts Options) *cobra.Command {
	s := newSession(opts)

	cmd := &cobra.Command{
		Use:   "artreg",
		Short: "Track code artifacts pulled out of conversations",
		Long: "artreg classifies a text blob (clipboard, file, or stdin), extracts fenced code\n" +
			"artifacts, and tracks each one by content digest in a local registry.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Arguments are valid by now; later failures are not usage errors
			cmd.Root().SilenceUsage = true
			return s.load(cmd)
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}

	cmd.PersistentFlags().StringVar(&s.home, "home", "", "registry home (default $ARTREG_HOME or ~/.artreg)")
	cmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "stderr log level: debug|info|warn|error")

	cmd.AddCommand(newInitCmd(s))
	cmd.AddCommand(newAddCmd(s))
	cmd.AddCommand(newCheckCmd(s))
	cmd.AddCommand(newListCmd(s))
	cmd.AddCommand(newSearchCmd(s))
	cmd.AddCommand(newMarkExecutedCmd(s))
	cmd.AddCommand(newStatsCmd(s))
	cmd.AddCommand(newVerifyCmd(s))
	cmd.AddCommand(newConfigCmd(s))
	cmd.AddCommand(journal.NewCommand(s.journalLocation))
	cmd.AddCommand(version.NewCommand())
	return cmd
}
