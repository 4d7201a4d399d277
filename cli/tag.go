package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"ghlicense/service"
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage license tags",
	}
	cmd.AddCommand(newTagPrimaryCmd())
	return cmd
}

func newTagPrimaryCmd() *cobra.Command {
	var (
		fileID  int
		license string
	)

	cmd := &cobra.Command{
		Use:   "primary",
		Short: "Mark one tag as the primary license of its repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fileID <= 0 || license == "" {
				return errors.New("--file-id and --license are required")
			}
			return withService(cmd, func(svc *service.Service) error {
				if err := svc.Database().MarkPrimaryTag(cmd.Context(), fileID, license); err != nil {
					return err
				}
				printf(cmd, "%s marked primary for license file %d\n", license, fileID)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&fileID, "file-id", 0, "license file id")
	cmd.Flags().StringVar(&license, "license", "", "license abbreviation")
	return cmd
}
