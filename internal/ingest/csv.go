package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/reviewlens/internal/models"
)

const (
	ColText      = "Review Text"
	ColRating    = "Rating"
	ColDate      = "Date"
	ColBank      = "Bank/App Name"
	ColSource    = "Source"
	ColCompound  = "Compound Score"
	ColSentiment = "Sentiment"
	ColTheme     = "Theme"

	dateLayout = "2006-01-02"
)

var (
	ReviewColumns   = []string{ColText, ColRating, ColDate, ColBank, ColSource}
	AnalyzedColumns = append(append([]string(nil), ReviewColumns...), ColCompound, ColSentiment, ColTheme)
)

var ErrMissingColumn = errors.New("[Ingest] missing column")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	dateLayout,
}

// ParseDate accepts the scraper's ISO timestamps as well as plain dates
// and truncates them to a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("[Ingest] unrecognised date %q", s)
}

// ReadReviews decodes the processed CSV. Columns are matched by header
// name. A bad rating or date is logged and left at its zero value so one
// record cannot fail the batch.
func ReadReviews(r io.Reader) ([]models.Review, error) {
	rows, err := readTable(r, ReviewColumns)
	if err != nil {
		return nil, err
	}

	reviews := make([]models.Review, 0, len(rows))
	for i, row := range rows {
		reviews = append(reviews, row.review(i))
	}
	return reviews, nil
}

// ReadAnalyzed decodes a CSV written by WriteAnalyzed.
func ReadAnalyzed(r io.Reader) ([]models.AnalyzedReview, error) {
	rows, err := readTable(r, AnalyzedColumns)
	if err != nil {
		return nil, err
	}

	out := make([]models.AnalyzedReview, 0, len(rows))
	for i, row := range rows {
		compound, err := strconv.ParseFloat(row.get(ColCompound), 64)
		if err != nil {
			slog.Warn("[Ingest] Invalid compound score, using 0",
				slog.Int("row", i+2),
				slog.String("value", row.get(ColCompound)))
		}
		label := models.Sentiment(row.get(ColSentiment))
		if !label.Valid() {
			return nil, fmt.Errorf("[Ingest] row %d: invalid sentiment %q", i+2, label)
		}
		out = append(out, models.AnalyzedReview{
			Review:          row.review(i),
			SentimentResult: models.SentimentResult{Compound: compound, Label: label},
			Theme:           row.get(ColTheme),
		})
	}
	return out, nil
}

func WriteReviews(w io.Writer, reviews []models.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReviewColumns); err != nil {
		return err
	}
	for _, r := range reviews {
		if err := cw.Write(reviewRecord(r)); err != nil {
			return fmt.Errorf("[Ingest] failed to write review: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteAnalyzed(w io.Writer, reviews []models.AnalyzedReview) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AnalyzedColumns); err != nil {
		return err
	}
	for _, r := range reviews {
		record := append(reviewRecord(r.Review),
			strconv.FormatFloat(r.Compound, 'f', 4, 64),
			string(r.Label),
			r.Theme,
		)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("[Ingest] failed to write analyzed review: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func reviewRecord(r models.Review) []string {
	rating := ""
	if r.Rating != 0 {
		rating = strconv.Itoa(r.Rating)
	}
	date := ""
	if !r.Date.IsZero() {
		date = r.Date.Format(dateLayout)
	}
	return []string{r.Text, rating, date, r.Bank, r.Source}
}

type tableRow struct {
	cols   map[string]int
	fields []string
}

func (t tableRow) get(col string) string {
	idx, ok := t.cols[col]
	if !ok || idx >= len(t.fields) {
		return ""
	}
	return t.fields[idx]
}

func (t tableRow) review(i int) models.Review {
	rating := 0
	if raw := strings.TrimSpace(t.get(ColRating)); raw != "" {
		// pandas may have written ratings as floats
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			slog.Warn("[Ingest] Invalid rating, treating as missing",
				slog.Int("row", i+2),
				slog.String("value", raw))
		} else if r := int(f); r < 1 || r > 5 {
			slog.Warn("[Ingest] Rating out of range, treating as missing",
				slog.Int("row", i+2),
				slog.Int("rating", r))
		} else {
			rating = r
		}
	}

	var date time.Time
	if raw := t.get(ColDate); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			slog.Warn("[Ingest] Invalid date, leaving empty",
				slog.Int("row", i+2),
				slog.String("value", raw))
		}
		date = d
	}

	return models.Review{
		Text:   t.get(ColText),
		Rating: rating,
		Date:   date,
		Bank:   t.get(ColBank),
		Source: t.get(ColSource),
	}
}

func readTable(r io.Reader, required []string) ([]tableRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Ingest] failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}

	var rows []tableRow
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("[Ingest] failed to read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, tableRow{cols: cols, fields: fields})
	}
	return rows, nil
}
