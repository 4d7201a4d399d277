package cli

import (
	"github.com/spf13/cobra"

	"ghlicense/service"
)

func newClassifyCmd() *cobra.Command {
	var startID int64

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Tag stored license files using the nomos scanner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *service.Service) error {
				summary, err := svc.Classifier().Run(cmd.Context(), startID)
				printf(cmd, "files=%d tags=%d unclassified=%d failed=%d\n",
					summary.Files, summary.TagsStored, summary.Unclassified, summary.Failed)
				if err != nil {
					printf(cmd, "resume with --start-id %d\n", summary.NextID)
				}
				return err
			})
		},
	}

	cmd.Flags().Int64Var(&startID, "start-id", 0, "first repository id to classify")
	return cmd
}
