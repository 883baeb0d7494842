package version

import (
	"fmt"
	"runtime"

	"github.com/0x-auth/artreg/internal/buildinfo"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, build commit, and runtime details",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "artreg version %s\n", buildinfo.GetVersion())
			fmt.Fprintf(out, "  Commit:        %s\n", buildinfo.GetCommit())
			fmt.Fprintf(out, "  Go version:    %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
