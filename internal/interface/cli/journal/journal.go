package journal

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/0x-auth/artreg/internal/domain/artifact"
	"github.com/0x-auth/artreg/internal/infra/journal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Locator reports the filesystem and path of the journal once config is loaded
type Locator func() (afero.Fs, string)

// NewCommand creates the journal command
func NewCommand(locate Locator) *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recorded registry mutations",
		Long:  "Show the most recent add and mark-executed events from the NDJSON journal, oldest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, path := locate()
			events, err := journal.ReadAll(fs, path)
			if err != nil {
				return fmt.Errorf("read journal %s: %w", path, err)
			}
			if limit > 0 && len(events) > limit {
				events = events[len(events)-limit:]
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if events == nil {
					events = []journal.Event{}
				}
				return enc.Encode(events)
			}

			if len(events) == 0 {
				fmt.Fprintf(out, "No journal entries at %s\n", path)
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tOP\tNAME\tDIGEST\tORIGIN")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.TS, e.Op, e.Name, artifact.ShortDigest(e.Digest), e.Origin)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many recent entries (0 for all)")
	cmd.Flags().StringVar(&format, "format", "", "output format (json)")
	return cmd
}
