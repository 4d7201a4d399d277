package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ghlicense/models"
	"ghlicense/service"
)

// Reporter is the read side of the license store used by the report commands.
type Reporter interface {
	UnmatchedRepositories(ctx context.Context) ([]string, error)
	MultiLicenseRepositories(ctx context.Context) ([]models.MultiLicenseRepository, error)
	LicenseCounts(ctx context.Context) ([]models.LicenseCount, error)
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize classification results",
	}

	cmd.AddCommand(
		reportSubcommand("unmatched", "List repositories whose files matched no license", renderUnmatched),
		reportSubcommand("multi", "List repositories carrying more than one license", renderMultiLicense),
		reportSubcommand("counts", "Count repositories per license", renderLicenseCounts),
	)
	return cmd
}

func reportSubcommand(use, short string, render func(context.Context, Reporter, io.Writer) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *service.Service) error {
				return render(cmd.Context(), svc.Database(), cmd.OutOrStdout())
			})
		},
	}
}

func renderUnmatched(ctx context.Context, r Reporter, w io.Writer) error {
	names, err := r.UnmatchedRepositories(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(w, "No match found for %s\n", name)
	}
	return nil
}

func renderMultiLicense(ctx context.Context, r Reporter, w io.Writer) error {
	repos, err := r.MultiLicenseRepositories(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d multilicensed repositories found:\n", len(repos))
	for _, repo := range repos {
		fmt.Fprintf(w, "%d licenses identified for %s\n", repo.Count, repo.FullName)
	}
	return nil
}

func renderLicenseCounts(ctx context.Context, r Reporter, w io.Writer) error {
	counts, err := r.LicenseCounts(ctx)
	if err != nil {
		return err
	}
	for _, c := range counts {
		fmt.Fprintf(w, "%s: %d\n", c.Abbreviation, c.Count)
	}
	return nil
}
