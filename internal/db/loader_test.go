package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewlens/internal/models"
)

type fakeWriter struct {
	saved [][]models.AnalyzedReview
	err   error
}

func (f *fakeWriter) SaveReviews(_ context.Context, reviews []models.AnalyzedReview) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, reviews)
	return len(reviews), nil
}

type fakeDeduper struct {
	loaded  map[string]bool
	markErr error
}

func (f *fakeDeduper) LoadedKeys(_ context.Context, keys []string) []bool {
	out := make([]bool, len(keys))
	for i, k := range keys {
		out[i] = f.loaded[k]
	}
	return out
}

func (f *fakeDeduper) MarkLoaded(_ context.Context, keys ...string) error {
	if f.markErr != nil {
		return f.markErr
	}
	for _, k := range keys {
		f.loaded[k] = true
	}
	return nil
}

func analyzed(text string, rating int) models.AnalyzedReview {
	return models.AnalyzedReview{
		Review: models.Review{
			Text:   text,
			Rating: rating,
			Date:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Bank:   "Bank of Abyssinia",
			Source: "Google Play Store",
		},
		SentimentResult: models.SentimentResult{Compound: 0.3, Label: models.Positive},
		Theme:           "Fast Transfer Service",
	}
}

func TestLoadSkipsIncompleteRows(t *testing.T) {
	noDate := analyzed("no date", 4)
	noDate.Date = time.Time{}

	writer := &fakeWriter{}
	stats, err := NewLoader(writer, nil).Load(context.Background(), []models.AnalyzedReview{
		analyzed("good", 5),
		analyzed("no rating", 0),
		analyzed("   ", 3),
		noDate,
	})
	require.NoError(t, err)

	assert.Equal(t, LoadStats{Input: 4, Incomplete: 3, Inserted: 1}, stats)
	require.Len(t, writer.saved, 1)
	assert.Equal(t, "good", writer.saved[0][0].Text)
}

func TestLoadSkipsReviewsLoadedBefore(t *testing.T) {
	writer := &fakeWriter{}
	dedupe := &fakeDeduper{loaded: map[string]bool{}}
	loader := NewLoader(writer, dedupe)

	batch := []models.AnalyzedReview{analyzed("one", 5), analyzed("two", 4), analyzed("one", 5)}

	first, err := loader.Load(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 1, first.Duplicates)

	second, err := loader.Load(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Duplicates)
	assert.Len(t, writer.saved, 1, "second load must not reach the store")
}

func TestLoadEmpty(t *testing.T) {
	_, err := NewLoader(&fakeWriter{}, nil).Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingToLoad)
}

func TestLoadWriterFailure(t *testing.T) {
	boom := errors.New("connection reset")
	dedupe := &fakeDeduper{loaded: map[string]bool{}}

	_, err := NewLoader(&fakeWriter{err: boom}, dedupe).Load(context.Background(),
		[]models.AnalyzedReview{analyzed("one", 5)})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, dedupe.loaded, "failed loads must not be remembered")
}

func TestLoadMarkFailureIsNotFatal(t *testing.T) {
	dedupe := &fakeDeduper{loaded: map[string]bool{}, markErr: errors.New("valkey down")}

	stats, err := NewLoader(&fakeWriter{}, dedupe).Load(context.Background(),
		[]models.AnalyzedReview{analyzed("one", 5)})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Inserted)
}

func TestInsertReviewsQuery(t *testing.T) {
	reviews := []models.AnalyzedReview{analyzed("one", 5), analyzed("two", 1)}

	query, args := insertReviewsQuery(reviews, map[string]int{"Bank of Abyssinia": 7})

	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8), ($9, $10, $11, $12, $13, $14, $15, $16)")
	assert.Contains(t, query, "ON CONFLICT (review_key) DO NOTHING")
	require.Len(t, args, 16)
	assert.Equal(t, reviews[0].Key(), args[0])
	assert.Equal(t, 7, args[1])
	assert.Equal(t, "two", args[10])
	assert.Equal(t, "Positive", args[14])
}
