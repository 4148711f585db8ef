package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JonMunkholm/jobtracker/internal/core"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export applications as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), a, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file, "-" for stdout (default: job-applications-YYYY-MM-DD.csv)`)
	return cmd
}

func runExport(ctx context.Context, a *app, output string, stdout io.Writer) error {
	db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := a.newService(db).Export(ctx, a.owner)
	if errors.Is(err, core.ErrNothingToExport) {
		return withCode(exitValidation, err)
	}
	if err != nil {
		return withCode(exitDB, err)
	}

	if output == "-" {
		return core.WriteCSV(stdout, records)
	}
	if output == "" {
		output = core.ExportFileName(time.Now())
	}

	f, err := os.Create(output)
	if err != nil {
		return withCode(exitError, err)
	}
	if err := core.WriteCSV(f, records); err != nil {
		f.Close()
		return withCode(exitError, fmt.Errorf("write %s: %w", output, err))
	}
	if err := f.Close(); err != nil {
		return withCode(exitError, err)
	}
	a.logger.Info("export written", "file", output, "records", len(records))
	return nil
}
