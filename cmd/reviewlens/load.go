package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/clients"
	"github.com/spacesedan/reviewlens/internal/clients/kafka_client"
	"github.com/spacesedan/reviewlens/internal/db"
	"github.com/spacesedan/reviewlens/internal/ingest"
	"github.com/spacesedan/reviewlens/internal/models"
)

var errNoCredentials = errors.New("[Load] database credentials are missing, set DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME")

type loadOptions struct {
	in        string
	fromKafka bool
	follow    bool
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Store the analyzed reviews in PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromKafka, _ := cmd.Flags().GetBool("from-kafka")
		follow, _ := cmd.Flags().GetBool("follow")
		return runLoad(cmd.Context(), cfg, loadOptions{
			in:        pathFlag(cmd, "in", cfg.Paths.Analyzed),
			fromKafka: fromKafka,
			follow:    follow,
		})
	},
}

func init() {
	loadCmd.Flags().String("in", "", "analyzed CSV (default from config)")
	loadCmd.Flags().Bool("from-kafka", false, "consume analyzed reviews from Kafka instead of the CSV")
	loadCmd.Flags().Bool("follow", false, "with --from-kafka, keep consuming until interrupted")
}

func runLoad(ctx context.Context, cfg config.Config, opts loadOptions) error {
	if !cfg.Postgres.Complete() {
		return errNoCredentials
	}

	var reviews []models.AnalyzedReview
	if !opts.fromKafka {
		f, err := ingest.OpenInput(opts.in)
		if err != nil {
			return err
		}
		reviews, err = ingest.ReadAnalyzed(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	pg, err := clients.NewPostgresClient(ctx, cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer pg.Close()

	var dedupe db.Deduper
	if cfg.Valkey.Address != "" {
		vc, err := clients.NewValkeyClient(cfg.Valkey)
		if err != nil {
			slog.Warn("[Load] Valkey unavailable, relying on the review key constraint",
				slog.String("error", err.Error()))
		} else {
			defer vc.Close()
			dedupe = vc
		}
	}

	loader := db.NewLoader(db.NewReviewStore(pg.DB), dedupe)

	if !opts.fromKafka {
		_, err = loader.Load(ctx, reviews)
		return err
	}

	consumer, err := kafka_client.NewConsumer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer consumer.Close()

	return consumer.ConsumeAnalyzed(ctx, opts.follow, func(ctx context.Context, batch []models.AnalyzedReview) error {
		_, err := loader.Load(ctx, batch)
		return err
	})
}
