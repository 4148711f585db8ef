// Command jobtrack imports and exports job applications from the command
// line against the same store the server uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/jobtracker/internal/config"
	"github.com/JonMunkholm/jobtracker/internal/core"
	"github.com/JonMunkholm/jobtracker/internal/logging"
	"github.com/JonMunkholm/jobtracker/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	exitError      = 1
	exitUsage      = 2
	exitValidation = 3
	exitDB         = 4
)

// codedError carries the process exit code for an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

func exitCode(err error) int {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitError
}

// app holds what every subcommand needs once the root pre-run has loaded
// configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	database string
	owner    string
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	db, err := store.Open(ctx, a.database, store.Options{
		MaxConns:        a.cfg.Database.MaxConns,
		MinConns:        a.cfg.Database.MinConns,
		MaxConnLifetime: a.cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: a.cfg.Database.MaxConnIdleTime,
		BatchSize:       a.cfg.Import.BatchSize,
	})
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, withCode(exitDB, err)
	}
	return db, nil
}

func (a *app) newService(repo core.Repository) *core.Service {
	return core.NewService(repo, core.ServiceOptions{
		Importer: core.NewImporter(core.ImporterOptions{
			MaxFileSize:      a.cfg.Import.MaxFileSize,
			ProgressInterval: a.cfg.Import.ProgressInterval,
			Logger:           a.logger,
		}),
		Limiter:       core.NewImportLimiter(1, a.cfg.Import.MaxWaitTime),
		ImportTimeout: a.cfg.Import.Timeout,
		Logger:        a.logger,
	})
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "jobtrack",
		Short:         "Import and export job applications",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			a.cfg = cfg
			// Logs go to stderr so export output on stdout stays clean.
			a.logger = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
			if a.database == "" {
				a.database = cfg.Database.URL
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.database, "database", "", "Database URL or SQLite path (default: DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&a.owner, "owner", core.DefaultOwnerID, "Owner the applications belong to")

	cmd.AddCommand(newImportCmd(a), newExportCmd(a), newMigrateCmd(a))
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", errorText(err))
		os.Exit(exitCode(err))
	}
}

// errorText prefers the mapped message and support code for known errors.
func errorText(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
