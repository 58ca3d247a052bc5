package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/clients"
	"github.com/spacesedan/reviewlens/internal/db"
	"github.com/spacesedan/reviewlens/internal/ingest"
	"github.com/spacesedan/reviewlens/internal/insights"
	"github.com/spacesedan/reviewlens/internal/models"
	"github.com/spacesedan/reviewlens/internal/pipeline"
)

type insightsOptions struct {
	in     string
	outDir string
	fromDB bool
	dynamo bool
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Aggregate analyzed reviews into a Markdown and HTML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromDB, _ := cmd.Flags().GetBool("from-db")
		dynamo, _ := cmd.Flags().GetBool("dynamo")
		return runInsights(cmd.Context(), cfg, insightsOptions{
			in:     pathFlag(cmd, "in", cfg.Paths.Analyzed),
			outDir: pathFlag(cmd, "out-dir", cfg.Paths.Reports),
			fromDB: fromDB,
			dynamo: dynamo,
		})
	},
}

func init() {
	insightsCmd.Flags().String("in", "", "analyzed CSV (default from config)")
	insightsCmd.Flags().String("out-dir", "", "report directory (default from config)")
	insightsCmd.Flags().Bool("from-db", false, "read analyzed reviews from PostgreSQL instead of the CSV")
	insightsCmd.Flags().Bool("dynamo", false, "store per-bank summaries in DynamoDB")
}

func runInsights(ctx context.Context, cfg config.Config, opts insightsOptions) error {
	reviews, err := readAnalyzed(ctx, cfg, opts)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return pipeline.ErrEmptyCorpus
	}

	report := insights.Summarize(reviews)
	slog.Info("[Insights] Key metrics",
		slog.Int("total", report.Total),
		slog.String("highest_rating", report.HighestRating.Bank),
		slog.String("highest_negative", report.HighestNegative.Bank),
		slog.String("highest_positive", report.HighestPositive.Bank))
	for _, b := range report.Banks {
		slog.Info("[Insights] Critical negative theme",
			slog.String("bank", b.Bank),
			slog.String("theme", b.CriticalTheme()))
	}

	mdPath := filepath.Join(opts.outDir, "report.md")
	if err := ingest.WriteFile(mdPath, func(w io.Writer) error {
		_, err := io.WriteString(w, insights.RenderMarkdown(report))
		return err
	}); err != nil {
		return err
	}

	htmlPath := filepath.Join(opts.outDir, "report.html")
	if err := ingest.WriteFile(htmlPath, func(w io.Writer) error {
		_, err := w.Write(insights.RenderHTML(report))
		return err
	}); err != nil {
		return err
	}
	slog.Info("[Insights] Saved report",
		slog.String("markdown", mdPath),
		slog.String("html", htmlPath))

	if opts.dynamo {
		client, err := clients.GetDynamoDBClient(ctx, cfg.Dynamo)
		if err != nil {
			return err
		}
		return db.NewSummaryStore(client, cfg.Dynamo.Table).StoreBankSummaries(ctx, report.Banks)
	}
	return nil
}

func readAnalyzed(ctx context.Context, cfg config.Config, opts insightsOptions) ([]models.AnalyzedReview, error) {
	if opts.fromDB {
		if !cfg.Postgres.Complete() {
			return nil, errNoCredentials
		}
		pg, err := clients.NewPostgresClient(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		defer pg.Close()
		return db.NewReviewStore(pg.DB).FetchAnalyzed(ctx)
	}

	f, err := ingest.OpenInput(opts.in)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ReadAnalyzed(f)
}
