package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"
	"github.com/spacesedan/reviewlens/internal/models"
)

// Thresholds are inclusive bounds on the compound score.
type Thresholds struct {
	Positive float64
	Negative float64
}

var DefaultThresholds = Thresholds{Positive: 0.05, Negative: -0.05}

// Scorer wraps the VADER lexicon engine. The analyzer only reads its
// lexicon after construction, so a Scorer is safe for concurrent use.
type Scorer struct {
	analyzer   *govader.SentimentIntensityAnalyzer
	thresholds Thresholds
}

func NewScorer(thresholds Thresholds) *Scorer {
	return &Scorer{
		analyzer:   govader.NewSentimentIntensityAnalyzer(),
		thresholds: thresholds,
	}
}

// Score runs VADER on the raw text. Casing and punctuation matter to its
// heuristics, so callers must not pass normalized text.
func (s *Scorer) Score(text string) models.SentimentResult {
	var compound float64
	if strings.TrimSpace(text) != "" {
		compound = s.analyzer.PolarityScores(text).Compound
	}
	return models.SentimentResult{
		Compound: compound,
		Label:    Label(compound, s.thresholds),
	}
}

func Label(compound float64, t Thresholds) models.Sentiment {
	switch {
	case compound >= t.Positive:
		return models.Positive
	case compound <= t.Negative:
		return models.Negative
	default:
		return models.Neutral
	}
}
