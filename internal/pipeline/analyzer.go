// Package pipeline turns a batch of reviews into analyzed reviews: a
// sentiment pass over every review and an independent theme pass per bank.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/models"
	"github.com/spacesedan/reviewlens/internal/sentiment"
	"github.com/spacesedan/reviewlens/internal/textclean"
	"github.com/spacesedan/reviewlens/internal/topics"
)

var ErrEmptyCorpus = errors.New("[Pipeline] no reviews to analyze")

// SentimentScorer scores raw review text.
type SentimentScorer interface {
	Score(text string) models.SentimentResult
}

type Analyzer struct {
	cfg        config.Analysis
	scorer     SentimentScorer
	normalizer *textclean.Normalizer
	weighter   *topics.Weighter
	extractor  *topics.Extractor
}

// New wires the analysis stages from cfg. A nil scorer means VADER with
// the configured thresholds.
func New(cfg config.Analysis, scorer SentimentScorer) *Analyzer {
	if scorer == nil {
		scorer = sentiment.NewScorer(sentiment.Thresholds{
			Positive: cfg.PositiveThreshold,
			Negative: cfg.NegativeThreshold,
		})
	}

	return &Analyzer{
		cfg:        cfg,
		scorer:     scorer,
		normalizer: textclean.New(cfg.MinTokenLen, nil),
		weighter: topics.NewWeighter(topics.WeightingConfig{
			MinDocFreq: cfg.MinDocFreq,
			MaxDocFrac: cfg.MaxDocFrac,
			NGramMin:   cfg.NGramMin,
			NGramMax:   cfg.NGramMax,
		}),
		extractor: topics.NewExtractor(topics.ExtractorConfig{
			Topics:    cfg.Topics,
			MaxIter:   cfg.MaxIter,
			Tolerance: cfg.Tolerance,
			Seed:      cfg.Seed,
			TopTerms:  cfg.TopTerms,
			NameTerms: cfg.NameTerms,
		}),
	}
}

// corpus is one bank's slice of the batch. indexes point back into the
// input so results land in their original rows.
type corpus struct {
	bank    string
	indexes []int
	docs    []string
}

// Analyze scores and themes every review. The output has the same length
// and order as reviews, and every record has a label and a theme.
func (a *Analyzer) Analyze(ctx context.Context, reviews []models.Review) ([]models.AnalyzedReview, error) {
	if len(reviews) == 0 {
		return nil, ErrEmptyCorpus
	}

	out := make([]models.AnalyzedReview, len(reviews))
	for i, r := range reviews {
		out[i].Review = r
	}

	slog.Info("[Pipeline] Performing sentiment analysis (VADER)",
		slog.Int("reviews", len(reviews)))
	if err := a.scoreSentiment(ctx, out); err != nil {
		return nil, err
	}

	corpora := a.groupByBank(reviews)
	slog.Info("[Pipeline] Performing thematic analysis (TF-IDF + NMF) per bank",
		slog.Int("banks", len(corpora)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for _, c := range corpora {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i, theme := range a.themes(c) {
				out[c.indexes[i]].Theme = theme
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("[Pipeline] thematic analysis failed: %w", err)
	}

	return out, nil
}

func (a *Analyzer) scoreSentiment(ctx context.Context, out []models.AnalyzedReview) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i := range out {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i].SentimentResult = a.scorer.Score(out[i].Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("[Pipeline] sentiment analysis failed: %w", err)
	}
	return nil
}

// groupByBank normalizes every review and groups the results by bank,
// banks in order of first appearance.
func (a *Analyzer) groupByBank(reviews []models.Review) []*corpus {
	var corpora []*corpus
	byBank := make(map[string]*corpus)
	for i, r := range reviews {
		c, ok := byBank[r.Bank]
		if !ok {
			c = &corpus{bank: r.Bank}
			byBank[r.Bank] = c
			corpora = append(corpora, c)
		}
		c.indexes = append(c.indexes, i)
		c.docs = append(c.docs, a.normalizer.Normalize(r.Text))
	}
	return corpora
}

// themes runs weighting, factorization and assignment for one bank.
func (a *Analyzer) themes(c *corpus) []string {
	var model *topics.Model

	switch w := a.weighter.Fit(c.docs).(type) {
	case *topics.Fitted:
		model = a.extractor.Extract(w)
		names := make([]string, len(model.Topics))
		for i, t := range model.Topics {
			names[i] = t.Name
		}
		slog.Info("[Pipeline] Identified themes",
			slog.String("bank", c.bank),
			slog.Int("documents", len(c.docs)),
			slog.Int("terms", len(w.Vocabulary)),
			slog.Any("themes", names))
	case topics.Insufficient:
		slog.Warn("[Pipeline] Skipping topic model, not enough unique documents/terms",
			slog.String("bank", c.bank),
			slog.Int("documents", len(c.docs)),
			slog.String("reason", w.Reason))
	}

	return topics.AssignAll(model, len(c.docs), a.cfg.FallbackTheme)
}

func (a *Analyzer) workers() int {
	if a.cfg.Workers > 0 {
		return a.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}
