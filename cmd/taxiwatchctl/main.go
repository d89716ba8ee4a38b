package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/repository"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

// loadReports opens the configured store and returns the watchlist.
type loadReports func(ctx context.Context) ([]domain.StoredReport, error)

func main() {
	cfg, err := config.Load("taxiwatch")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so command output stays clean
	log := logger.NewWithWriter("taxiwatchctl", os.Stderr)

	if err := newRootCmd(cfg, storeLoader(cfg, log), log).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, load loadReports, log *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "taxiwatchctl",
		Short:        "Inspect and export the TaxiWatch report watchlist",
		SilenceUsage: true,
	}

	root.AddCommand(
		NewListCmd(load),
		NewExportCmd(load),
		NewArchiveCmd(cfg, load, log),
	)
	return root
}

func storeLoader(cfg *config.Config, log *logger.Logger) loadReports {
	return func(ctx context.Context) ([]domain.StoredReport, error) {
		backend, closeBackend, err := repository.NewBackend(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open report store: %w", err)
		}
		defer closeBackend()

		return repository.NewReportStore(backend, log).Load(ctx), nil
	}
}
