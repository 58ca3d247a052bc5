package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Review is one customer review as handed over by the collection step.
// A zero Rating means the store did not report one.
type Review struct {
	Text   string    `json:"review_text"`
	Rating int       `json:"rating"`
	Date   time.Time `json:"date"`
	Bank   string    `json:"bank_name"`
	Source string    `json:"source"`
}

// RawReview mirrors a record of the scraper dump. Only the fields the
// pipeline needs are decoded, the rest of the record is ignored.
type RawReview struct {
	Content  *string `json:"content"`
	Score    *int    `json:"score"`
	At       string  `json:"at"`
	BankName string  `json:"bank_name"`
	Source   string  `json:"source"`
}

// AnalyzedReview is the enriched record written to persistence and reporting.
type AnalyzedReview struct {
	Review
	SentimentResult
	Theme string `json:"theme"`
}

// Key identifies a review across runs: same bank, text and date give the
// same key.
func (r Review) Key() string {
	raw := fmt.Sprintf("%s:%s:%s", r.Bank, r.Date.Format("2006-01-02"), r.Text)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}
