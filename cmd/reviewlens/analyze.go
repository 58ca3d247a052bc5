package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/clients/kafka_client"
	"github.com/spacesedan/reviewlens/internal/ingest"
	"github.com/spacesedan/reviewlens/internal/models"
	"github.com/spacesedan/reviewlens/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score sentiment and assign themes to the processed reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		publish, _ := cmd.Flags().GetBool("publish")
		return runAnalyze(cmd.Context(), cfg,
			pathFlag(cmd, "in", cfg.Paths.Processed),
			pathFlag(cmd, "out", cfg.Paths.Analyzed),
			publish,
		)
	},
}

func init() {
	analyzeCmd.Flags().String("in", "", "processed CSV (default from config)")
	analyzeCmd.Flags().String("out", "", "analyzed CSV (default from config)")
	analyzeCmd.Flags().Bool("publish", false, "also publish every analyzed review to Kafka")
}

func runAnalyze(ctx context.Context, cfg config.Config, in, out string, publish bool) error {
	f, err := ingest.OpenInput(in)
	if err != nil {
		return err
	}
	defer f.Close()

	reviews, err := ingest.ReadReviews(f)
	if err != nil {
		return err
	}
	slog.Info("[Analyze] Loaded processed reviews",
		slog.String("path", in),
		slog.Int("count", len(reviews)))

	analyzed, err := pipeline.New(cfg.Analysis, nil).Analyze(ctx, reviews)
	if err != nil {
		return err
	}

	if err := ingest.WriteFile(out, func(w io.Writer) error {
		return ingest.WriteAnalyzed(w, analyzed)
	}); err != nil {
		return err
	}
	slog.Info("[Analyze] Saved analyzed reviews", slog.String("path", out))

	if publish {
		return publishAnalyzed(ctx, cfg.Kafka, analyzed)
	}
	return nil
}

func publishAnalyzed(ctx context.Context, cfg config.Kafka, analyzed []models.AnalyzedReview) error {
	producer, err := kafka_client.NewProducer(ctx, cfg)
	if err != nil {
		return err
	}
	defer producer.Close()

	return producer.PublishAnalyzed(ctx, cfg.Topic, analyzed)
}
