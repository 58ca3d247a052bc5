// Package ingest moves review records between the scraper dump, the CSV
// files exchanged by the pipeline stages and the domain models.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spacesedan/reviewlens/internal/models"
)

// PreprocessStats describes what Preprocess removed.
type PreprocessStats struct {
	Raw         int
	Kept        int
	MissingText int
	Duplicates  int
	BadDate     int
	PerBank     []BankCount
}

func (s PreprocessStats) Removed() int {
	return s.Raw - s.Kept
}

type BankCount struct {
	Bank  string
	Count int
}

// DecodeRaw reads the scraper's JSON array of review records.
func DecodeRaw(r io.Reader) ([]models.RawReview, error) {
	var raw []models.RawReview
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("[Ingest] failed to decode raw reviews: %w", err)
	}
	return raw, nil
}

// Preprocess keeps the fields the pipeline needs, drops records without
// text, drops repeats of the same (text, timestamp) pair keeping the first,
// and truncates timestamps to dates. Records whose timestamp cannot be
// parsed are dropped. Order is preserved.
func Preprocess(raw []models.RawReview) ([]models.Review, PreprocessStats) {
	stats := PreprocessStats{Raw: len(raw)}

	type key struct{ text, at string }
	seen := make(map[key]struct{}, len(raw))
	bankIdx := make(map[string]int)

	reviews := make([]models.Review, 0, len(raw))
	for i, r := range raw {
		if r.Content == nil || strings.TrimSpace(*r.Content) == "" {
			stats.MissingText++
			continue
		}

		k := key{text: *r.Content, at: r.At}
		if _, dup := seen[k]; dup {
			stats.Duplicates++
			continue
		}
		seen[k] = struct{}{}

		date, err := ParseDate(r.At)
		if err != nil {
			slog.Warn("[Preprocess] Dropping review with unparseable timestamp",
				slog.Int("index", i),
				slog.String("at", r.At))
			stats.BadDate++
			continue
		}

		rating := 0
		if r.Score != nil && *r.Score >= 1 && *r.Score <= 5 {
			rating = *r.Score
		}

		reviews = append(reviews, models.Review{
			Text:   *r.Content,
			Rating: rating,
			Date:   date,
			Bank:   r.BankName,
			Source: r.Source,
		})

		idx, ok := bankIdx[r.BankName]
		if !ok {
			idx = len(stats.PerBank)
			bankIdx[r.BankName] = idx
			stats.PerBank = append(stats.PerBank, BankCount{Bank: r.BankName})
		}
		stats.PerBank[idx].Count++
	}

	stats.Kept = len(reviews)
	return reviews, stats
}
