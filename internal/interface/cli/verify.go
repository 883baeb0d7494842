package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every record's content file exists and matches its digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := s.registry()
			if err != nil {
				return err
			}
			res, err := svc.Verify(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range res.Problems {
				fmt.Fprintf(out, "FAIL %s %s %s: %s\n", p.Record.Name, p.Record.ShortDigest(), p.Record.Locator, p.Reason)
			}
			fmt.Fprintf(out, "SUMMARY: records=%d ok=%d fail=%d\n", res.Checked, res.Checked-len(res.Problems), len(res.Problems))

			if !res.Healthy() {
				return fmt.Errorf("%d of %d records failed verification", len(res.Problems), res.Checked)
			}
			return nil
		},
	}
}
