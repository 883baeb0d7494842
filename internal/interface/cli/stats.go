package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/0x-auth/artreg/internal/domain/artifact"
	"github.com/spf13/cobra"
)

func newStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := s.registry()
			if err != nil {
				return err
			}
			st, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:        %d\n", st.Total)
			fmt.Fprintf(out, "Executed:     %d\n", st.Executed)
			fmt.Fprintf(out, "Pending:      %d\n", st.Pending)
			fmt.Fprintf(out, "Last updated: %s\n", st.LastUpdated.Format(time.RFC3339))

			kinds := make([]artifact.Kind, 0, len(st.ByKind))
			for k := range st.ByKind {
				kinds = append(kinds, k)
			}
			slices.Sort(kinds)
			if len(kinds) > 0 {
				fmt.Fprintln(out, "By kind:")
			}
			for _, k := range kinds {
				fmt.Fprintf(out, "  %-5s %d\n", k, st.ByKind[k])
			}
			return nil
		},
	}
}
