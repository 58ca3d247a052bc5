package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spacesedan/reviewlens/internal/models"
	"github.com/spacesedan/reviewlens/internal/utils"
)

// rows per INSERT, well below the 65535 bind parameter limit
const insertChunk = 500

const reviewColumns = 8

// SaveReviews writes reviews and their banks in a single transaction.
// Reviews whose key is already stored are skipped. It returns the number
// of rows inserted.
func (s *ReviewStore) SaveReviews(ctx context.Context, reviews []models.AnalyzedReview) (int, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("[DB] failed to begin transaction: %w", err)
	}
	// no-op after a successful commit
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return 0, fmt.Errorf("[DB] failed to create schema: %w", err)
	}

	bankIDs, err := upsertBanks(ctx, tx, reviews)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, chunk := range utils.Batches(reviews, insertChunk) {
		query, args := insertReviewsQuery(chunk, bankIDs)
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("[DB] failed to insert reviews: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("[DB] failed to commit transaction: %w", err)
	}

	slog.Info("[DB] Stored reviews and committed transaction",
		slog.Int("banks", len(bankIDs)),
		slog.Int("inserted", inserted),
		slog.Int("skipped", len(reviews)-inserted))
	return inserted, nil
}

// upsertBanks makes sure every bank has a row and returns bank name to id.
// A new bank takes the source of its first review.
func upsertBanks(ctx context.Context, tx pgx.Tx, reviews []models.AnalyzedReview) (map[string]int, error) {
	const query = `
        INSERT INTO banks (bank_name, app_source) VALUES ($1, $2)
        ON CONFLICT (bank_name) DO UPDATE SET bank_name = EXCLUDED.bank_name
        RETURNING bank_id
    `

	batch := &pgx.Batch{}
	var order []string
	seen := make(map[string]bool)
	for _, r := range reviews {
		if seen[r.Bank] {
			continue
		}
		seen[r.Bank] = true
		order = append(order, r.Bank)
		batch.Queue(query, r.Bank, r.Source)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	ids := make(map[string]int, len(order))
	for _, bank := range order {
		var id int
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("[DB] failed to upsert bank %q: %w", bank, err)
		}
		ids[bank] = id
	}
	return ids, nil
}

func insertReviewsQuery(reviews []models.AnalyzedReview, bankIDs map[string]int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO reviews (review_key, bank_id, review_text, rating, review_date, compound_score, sentiment, theme) VALUES `)

	values := make([]any, 0, len(reviews)*reviewColumns)
	for i, r := range reviews {
		if i > 0 {
			sb.WriteString(", ")
		}
		offset := i * reviewColumns
		sb.WriteString("(")
		for c := 1; c <= reviewColumns; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", offset+c)
		}
		sb.WriteString(")")

		values = append(values,
			r.Key(), bankIDs[r.Bank], r.Text, r.Rating, r.Date,
			r.Compound, string(r.Label), r.Theme)
	}
	sb.WriteString(" ON CONFLICT (review_key) DO NOTHING")

	return sb.String(), values
}

// FetchAnalyzed reads every stored review back, oldest first.
func (s *ReviewStore) FetchAnalyzed(ctx context.Context) ([]models.AnalyzedReview, error) {
	const query = `
        SELECT r.review_text, r.rating, r.review_date, b.bank_name, b.app_source,
               COALESCE(r.compound_score, 0)::float8, r.sentiment, COALESCE(r.theme, '')
        FROM reviews r
        JOIN banks b ON b.bank_id = r.bank_id
        ORDER BY r.review_date, r.review_id
    `

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("[DB] failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.AnalyzedReview
	for rows.Next() {
		var (
			r     models.AnalyzedReview
			label string
		)
		if err := rows.Scan(&r.Text, &r.Rating, &r.Date, &r.Bank, &r.Source,
			&r.Compound, &label, &r.Theme); err != nil {
			return nil, fmt.Errorf("[DB] failed to scan review: %w", err)
		}
		r.Label = models.Sentiment(label)
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("[DB] failed to read reviews: %w", err)
	}

	slog.Info("[DB] Fetched analyzed reviews", slog.Int("count", len(reviews)))
	return reviews, nil
}
