package cli

import (
	"github.com/spf13/cobra"

	"ghlicense/service"
)

func newCrawlCmd() *cobra.Command {
	var startURL string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Retrieve repositories and their license files",
		Long: `crawl walks the repository listing from the stored cursor (or --url,
which also replaces the stored cursor) and stores each new repository with its
license candidates and README. Rerun after any failure to resume.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *service.Service) error {
				crawler, err := svc.Crawler()
				if err != nil {
					return err
				}
				summary, err := crawler.Run(cmd.Context(), startURL)
				printf(cmd, "pages=%d repositories=%d known=%d files=%d total=%d\n",
					summary.Pages, summary.RepositoriesStored, summary.RepositoriesDuplicate,
					summary.FilesStored, summary.TotalRepositories)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&startURL, "url", "u", "", "listing URL to start from (a 'next' link of an earlier page)")
	return cmd
}
