package cli

import (
	"fmt"

	"github.com/0x-auth/artreg/internal/usecase/registry"
	"github.com/spf13/cobra"
)

func newMarkExecutedCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-executed <digest>",
		Short: "Flag an artifact as executed",
		Long:  "Flag an artifact as executed. The digest may be given in full or as a unique prefix of at least 4 characters.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.registry()
			if err != nil {
				return err
			}
			res, err := svc.MarkExecuted(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch res.Status {
			case registry.StatusOK:
				fmt.Fprintf(out, "%s %s %s\n", res.Message, res.Record.Name, res.Record.ShortDigest())
			default:
				// Not found and ambiguous prefixes are answers, not failures
				fmt.Fprintln(out, res.Message)
			}
			return nil
		},
	}
}
