package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/0x-auth/artreg/internal/domain/artifact"
	"github.com/spf13/cobra"
)

const (
	glyphExecuted = "✓"
	glyphPending  = "·"
)

func newListCmd(s *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list [filter]",
		Short: "List tracked artifacts",
		Long: "List tracked artifacts in the order they were added.\n" +
			"A filter keeps records whose name, kind, or origin contains it (case-sensitive).",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.registry()
			if err != nil {
				return err
			}

			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			res, err := svc.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(res.Records)
			}
			if len(res.Records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No artifacts found")
				return nil
			}
			return printRecords(cmd.OutOrStdout(), res.Records)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

// printRecords writes one aligned line per record: glyph, name, kind, digest prefix, add date
func printRecords(out io.Writer, records []artifact.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	for _, r := range records {
		glyph := glyphPending
		if r.Executed {
			glyph = glyphExecuted
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", glyph, r.Name, r.Kind, r.ShortDigest(), r.AddedAt.Format("2006-01-02"))
	}
	return w.Flush()
}
