package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"ghlicense/models"
	"ghlicense/service"
)

var exportHeader = []string{
	"repo_id", "owner_login", "repo_name", "repo_description", "repo_private",
	"repo_fork", "repo_url", "license_filename", "license_url", "abbreviation",
	"is_primary",
}

// Exporter supplies the rows of the license CSV.
type Exporter interface {
	ExportRows(ctx context.Context) ([]models.ExportRow, error)
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tagged license files as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *service.Service) (err error) {
				w := cmd.OutOrStdout()
				if output != "" {
					f, createErr := os.Create(output)
					if createErr != nil {
						return fmt.Errorf("failed to create %s: %w", output, createErr)
					}
					defer func() {
						if closeErr := f.Close(); closeErr != nil && err == nil {
							err = closeErr
						}
					}()
					w = f
				}
				return writeExport(cmd.Context(), svc.Database(), w)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func writeExport(ctx context.Context, e Exporter, w io.Writer) error {
	rows, err := e.ExportRows(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.RepoID, 10),
			row.OwnerLogin,
			row.RepoName,
			row.Description,
			strconv.FormatBool(row.Private),
			strconv.FormatBool(row.Fork),
			row.RepoURL,
			row.LicenseFileName,
			row.LicenseURL,
			row.Abbreviation,
			strconv.FormatBool(row.Primary),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
