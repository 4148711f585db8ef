package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/jobtracker/internal/core"
	"github.com/spf13/cobra"
)

type importOptions struct {
	file   string
	dryRun bool
	strict bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import applications from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			return runImport(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate the file without saving")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit with status 3 when any row is rejected")
	return cmd
}

func runImport(ctx context.Context, a *app, opts importOptions, out io.Writer) error {
	f, err := os.Open(opts.file)
	if err != nil {
		return withCode(exitUsage, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return withCode(exitUsage, err)
	}
	src := core.FileSource{Name: filepath.Base(opts.file), Size: info.Size(), Reader: f}

	progress := func(p core.ImportProgress) {
		a.logger.Debug("import progress", "phase", p.Phase, "rows", p.RowsProcessed, "percent", p.Percent())
	}

	var result *core.ImportResult
	if opts.dryRun {
		importer := core.NewImporter(core.ImporterOptions{
			MaxFileSize:      a.cfg.Import.MaxFileSize,
			ProgressInterval: a.cfg.Import.ProgressInterval,
			Logger:           a.logger,
		})
		result, err = importer.Import(ctx, src, progress)
	} else {
		db, openErr := a.openStore(ctx)
		if openErr != nil {
			return openErr
		}
		defer db.Close()
		result, err = a.newService(db).Import(ctx, a.owner, src, progress)
	}
	if err != nil {
		a.logger.Debug("import refused", "code", core.MapError(err).Code)
		return withCode(exitValidation, err)
	}

	printResult(out, result, opts.dryRun)
	if opts.strict && len(result.Errors) > 0 {
		return withCode(exitValidation, fmt.Errorf("%d rows rejected", result.Skipped))
	}
	if !result.Success {
		return withCode(exitValidation, fmt.Errorf("no rows imported"))
	}
	return nil
}

func printResult(w io.Writer, r *core.ImportResult, dryRun bool) {
	count, verb := r.Saved, "imported"
	switch {
	case dryRun:
		count, verb = len(r.Imported), "valid"
	case r.Aborted:
		count, verb = len(r.Imported), "validated, none saved"
	}
	fmt.Fprintf(w, "%s: %d %s, %d skipped, %d errors (%s)\n",
		r.FileName, count, verb, r.Skipped, len(r.Errors), r.Duration.Round(time.Millisecond))
	if r.Aborted {
		fmt.Fprintln(w, "import aborted before end of file")
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
}
