package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/taxiwatch/taxiwatch-backend/internal/archive"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/export"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

const commandTimeout = 60 * time.Second

type ListCmd struct {
	load loadReports
}

func NewListCmd(load loadReports) *cobra.Command {
	lc := &ListCmd{load: load}
	return &cobra.Command{
		Use:   "list",
		Short: "Print the watchlist, most recent first",
		Args:  cobra.NoArgs,
		RunE:  lc.run,
	}
}

func (lc *ListCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	reports, err := lc.load(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tPLATE\tSEVERITY\tCATEGORY\tID")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%d/5\t%s\t%s\n",
			export.FormatTime(r.Timestamp), r.LicensePlate, r.SeverityRating, r.IncidentCategory, r.ID)
	}
	return tw.Flush()
}

type ExportCmd struct {
	load loadReports
	out  string
	now  func() time.Time
}

func NewExportCmd(load loadReports) *cobra.Command {
	ec := &ExportCmd{load: load, now: time.Now}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the law-enforcement text export",
		Args:  cobra.NoArgs,
		RunE:  ec.run,
	}

	cmd.Flags().StringVar(&ec.out, "out", "", "Output file (default: stdout)")

	return cmd
}

func (ec *ExportCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	reports, err := ec.load(ctx)
	if err != nil {
		return err
	}

	doc := export.Render(reports, ec.now())
	if ec.out == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
		return err
	}

	if err := os.WriteFile(ec.out, []byte(doc), 0o600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d reports to %s\n", len(reports), ec.out)
	return nil
}

type ArchiveCmd struct {
	cfg  *config.Config
	load loadReports
	log  *logger.Logger
	now  func() time.Time

	newArchiver func(ctx context.Context) (archive.Archiver, error)
}

func NewArchiveCmd(cfg *config.Config, load loadReports, log *logger.Logger) *cobra.Command {
	ac := &ArchiveCmd{cfg: cfg, load: load, log: log, now: time.Now}
	ac.newArchiver = func(ctx context.Context) (archive.Archiver, error) {
		return archive.NewS3Archive(ctx, &ac.cfg.Archive, ac.log)
	}
	return &cobra.Command{
		Use:   "archive",
		Short: "Upload the text export to the configured S3 archive",
		Args:  cobra.NoArgs,
		RunE:  ac.run,
	}
}

func (ac *ArchiveCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	reports, err := ac.load(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("no reports to archive")
	}

	archiver, err := ac.newArchiver(ctx)
	if err != nil {
		return err
	}

	now := ac.now()
	obj, err := archiver.Upload(ctx, export.FileName(now), export.Render(reports, now))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d reports to s3://%s/%s\n", len(reports), obj.Bucket, obj.Key)
	return nil
}
