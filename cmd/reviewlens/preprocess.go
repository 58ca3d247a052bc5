package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spacesedan/reviewlens/internal/ingest"
)

var errNothingKept = errors.New("[Preprocess] no reviews left after cleaning")

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Clean the scraped JSON dump into the processed CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreprocess(
			pathFlag(cmd, "in", cfg.Paths.Raw),
			pathFlag(cmd, "out", cfg.Paths.Processed),
		)
	},
}

func init() {
	preprocessCmd.Flags().String("in", "", "raw reviews JSON (default from config)")
	preprocessCmd.Flags().String("out", "", "processed CSV (default from config)")
}

func runPreprocess(in, out string) error {
	f, err := ingest.OpenInput(in)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := ingest.DecodeRaw(f)
	if err != nil {
		return err
	}

	reviews, stats := ingest.Preprocess(raw)
	slog.Info("[Preprocess] Cleaning complete",
		slog.Int("raw", stats.Raw),
		slog.Int("final", stats.Kept),
		slog.Int("removed", stats.Removed()),
		slog.Int("missing_text", stats.MissingText),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("bad_date", stats.BadDate))
	for _, b := range stats.PerBank {
		slog.Info("[Preprocess] Reviews per bank",
			slog.String("bank", b.Bank),
			slog.Int("count", b.Count))
	}

	if len(reviews) == 0 {
		return errNothingKept
	}

	if err := ingest.WriteFile(out, func(w io.Writer) error {
		return ingest.WriteReviews(w, reviews)
	}); err != nil {
		return err
	}

	slog.Info("[Preprocess] Saved processed reviews", slog.String("path", out))
	return nil
}
