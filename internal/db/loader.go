package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/reviewlens/internal/models"
)

var ErrNothingToLoad = errors.New("[Loader] no reviews to load")

type ReviewWriter interface {
	SaveReviews(ctx context.Context, reviews []models.AnalyzedReview) (int, error)
}

// Deduper remembers reviews across loads.
type Deduper interface {
	LoadedKeys(ctx context.Context, keys []string) []bool
	MarkLoaded(ctx context.Context, keys ...string) error
}

type LoadStats struct {
	Input      int
	Incomplete int
	Duplicates int
	Inserted   int
}

// Loader moves analyzed reviews into the relational store. Deduper may be
// nil, in which case the store's unique review key is the only guard.
type Loader struct {
	writer ReviewWriter
	dedupe Deduper
}

func NewLoader(writer ReviewWriter, dedupe Deduper) *Loader {
	return &Loader{writer: writer, dedupe: dedupe}
}

func (l *Loader) Load(ctx context.Context, reviews []models.AnalyzedReview) (LoadStats, error) {
	stats := LoadStats{Input: len(reviews)}
	if len(reviews) == 0 {
		return stats, ErrNothingToLoad
	}

	// rating, date and text are NOT NULL in the schema
	complete := make([]models.AnalyzedReview, 0, len(reviews))
	for _, r := range reviews {
		if r.Rating == 0 || r.Date.IsZero() || strings.TrimSpace(r.Text) == "" {
			stats.Incomplete++
			continue
		}
		complete = append(complete, r)
	}
	if stats.Incomplete > 0 {
		slog.Warn("[Loader] Skipping reviews without text, rating or date",
			slog.Int("count", stats.Incomplete))
	}

	fresh, keys := l.unseen(ctx, complete)
	stats.Duplicates = len(complete) - len(fresh)
	if len(fresh) == 0 {
		slog.Info("[Loader] Every review was loaded before, nothing to do",
			slog.Int("duplicates", stats.Duplicates))
		return stats, nil
	}

	inserted, err := l.writer.SaveReviews(ctx, fresh)
	if err != nil {
		return stats, fmt.Errorf("[Loader] failed to store reviews: %w", err)
	}
	stats.Inserted = inserted

	if l.dedupe != nil {
		if err := l.dedupe.MarkLoaded(ctx, keys...); err != nil {
			// the rows are committed, the store's unique key still holds
			slog.Warn("[Loader] Failed to remember loaded reviews",
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[Loader] Load complete",
		slog.Int("input", stats.Input),
		slog.Int("incomplete", stats.Incomplete),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("inserted", stats.Inserted))
	return stats, nil
}

// unseen drops reviews the deduper knows about and repeats within the
// batch. It returns the remaining reviews and their keys.
func (l *Loader) unseen(ctx context.Context, reviews []models.AnalyzedReview) ([]models.AnalyzedReview, []string) {
	keys := make([]string, len(reviews))
	for i, r := range reviews {
		keys[i] = r.Key()
	}

	loaded := make([]bool, len(reviews))
	if l.dedupe != nil {
		loaded = l.dedupe.LoadedKeys(ctx, keys)
	}

	seen := make(map[string]bool, len(reviews))
	var (
		fresh     []models.AnalyzedReview
		freshKeys []string
	)
	for i, r := range reviews {
		if (i < len(loaded) && loaded[i]) || seen[keys[i]] {
			continue
		}
		seen[keys[i]] = true
		fresh = append(fresh, r)
		freshKeys = append(freshKeys, keys[i])
	}
	return fresh, freshKeys
}
