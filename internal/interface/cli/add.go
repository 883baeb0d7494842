package cli

import (
	"fmt"

	"github.com/0x-auth/artreg/internal/domain/artifact"
	"github.com/0x-auth/artreg/internal/usecase/registry"
	"github.com/spf13/cobra"
)

func newAddCmd(s *session) *cobra.Command {
	var name, origin string

	cmd := &cobra.Command{
		Use:   "add [file|-]",
		Short: "Track every artifact found in a blob",
		Long: "Classify a blob and track each artifact it contains.\n" +
			"The blob is read from a file, from stdin with \"-\", or from the clipboard when omitted.\n" +
			"Content that is already tracked is reported, not duplicated.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := s.readBlob(cmd.Context(), args)
			if err != nil {
				return err
			}
			svc, err := s.registry()
			if err != nil {
				return err
			}

			res, err := svc.Add(cmd.Context(), registry.AddInput{Blob: blob, Name: name, Origin: origin})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Status == registry.StatusNoArtifact {
				fmt.Fprintln(out, res.Message)
				return nil
			}
			for _, it := range res.Items {
				verb := "exists"
				if it.Inserted {
					verb = "added"
				}
				fmt.Fprintf(out, "%s %s %s\n", verb, it.Record.Name, it.Record.ShortDigest())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name for the tracked artifacts (derived from content by default)")
	cmd.Flags().StringVar(&origin, "origin", "", "origin id, e.g. a conversation id (default $ARTREG_ORIGIN or \"manual\")")
	return cmd
}

func newCheckCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file|-]",
		Short: "Report whether a blob's artifacts are already tracked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := s.readBlob(cmd.Context(), args)
			if err != nil {
				return err
			}
			svc, err := s.registry()
			if err != nil {
				return err
			}

			res, err := svc.Check(cmd.Context(), blob)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Status == registry.StatusNoArtifact {
				fmt.Fprintln(out, res.Message)
				return nil
			}
			for _, it := range res.Items {
				if it.Exists {
					fmt.Fprintf(out, "tracked %s %s %s\n", it.Record.Name, it.Candidate.Kind, it.Record.ShortDigest())
				} else {
					fmt.Fprintf(out, "new %s %s\n", it.Candidate.Kind, artifact.ShortDigest(it.Digest))
				}
			}
			return nil
		},
	}
}
