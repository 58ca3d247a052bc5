package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS banks (
    bank_id SERIAL PRIMARY KEY,
    bank_name VARCHAR(100) UNIQUE NOT NULL,
    app_source VARCHAR(50) NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
    review_id SERIAL PRIMARY KEY,
    review_key CHAR(64) UNIQUE NOT NULL,
    bank_id INTEGER NOT NULL REFERENCES banks(bank_id),
    review_text TEXT NOT NULL,
    rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
    review_date DATE NOT NULL,
    compound_score DECIMAL(5, 4),
    sentiment VARCHAR(10) NOT NULL,
    theme VARCHAR(255)
);
`

// ReviewStore persists analyzed reviews to the banks and reviews tables.
type ReviewStore struct {
	DB *pgxpool.Pool
}

func NewReviewStore(pool *pgxpool.Pool) *ReviewStore {
	return &ReviewStore{DB: pool}
}

// CreateSchema creates the tables when they do not exist yet.
func (s *ReviewStore) CreateSchema(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("[DB] failed to create schema: %w", err)
	}
	slog.Info("[DB] Schema (banks and reviews tables) created or already exists")
	return nil
}
