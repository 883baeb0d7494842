package cli

import (
	"fmt"
	"io"

	"github.com/0x-auth/artreg/internal/usecase/query"
	"github.com/spf13/cobra"
)

func newSearchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search artifact content for a literal term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.registry()
			if err != nil {
				return err
			}
			res, err := svc.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Matches) == 0 {
				fmt.Fprintf(out, "No matches for %q\n", args[0])
				return nil
			}
			for i, m := range res.Matches {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printMatch(out, m)
			}
			return nil
		},
	}
}

// printMatch writes a record header, then each hit's numbered window with '>' on the hit line
func printMatch(out io.Writer, m query.Match) {
	fmt.Fprintf(out, "%s %s %s\n", m.Record.Name, m.Record.Kind, m.Record.ShortDigest())
	for i, h := range m.Hits {
		if i > 0 {
			fmt.Fprintln(out, "  --")
		}
		for j, line := range h.Lines {
			n := h.Start + j
			marker := " "
			if n == h.Line {
				marker = ">"
			}
			fmt.Fprintf(out, "%s %4d | %s\n", marker, n, line)
		}
	}
}
