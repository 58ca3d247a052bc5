package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/ingest"
	"github.com/spacesedan/reviewlens/internal/pipeline"
)

const rawDump = `[
  {"reviewId": "1", "content": "Terrible app, crashes every time!!", "score": 1, "at": "2024-05-01T08:12:00", "bank_name": "CBE", "source": "Google Play Store"},
  {"reviewId": "2", "content": "Great service, fast transfers", "score": 5, "at": "2024-05-02T09:00:00", "bank_name": "CBE", "source": "Google Play Store"},
  {"reviewId": "3", "content": "Login fails constantly, terrible", "score": 1, "at": "2024-05-03T10:00:00", "bank_name": "CBE", "source": "Google Play Store"},
  {"reviewId": "4", "content": "Transfers are fast and reliable", "score": 4, "at": "2024-05-04T11:00:00", "bank_name": "CBE", "source": "Google Play Store"},
  {"reviewId": "5", "content": "App crashes on login", "score": 2, "at": "2024-05-05T12:00:00", "bank_name": "CBE", "source": "Google Play Store"},
  {"reviewId": "6", "content": "Customer service was great and fast", "score": 5, "at": "2024-05-06T13:00:00", "bank_name": "CBE", "source": "Google Play Store"},
  {"reviewId": "7", "content": "App crashes on login", "score": 2, "at": "2024-05-05T12:00:00", "bank_name": "CBE", "source": "Google Play Store"},
  {"reviewId": "8", "content": null, "score": 3, "at": "2024-05-07T12:00:00", "bank_name": "CBE", "source": "Google Play Store"}
]`

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Analysis.MinDocFreq = 2
	cfg.Analysis.Topics = 2
	return cfg
}

func TestPreprocessAnalyzeInsights(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw_reviews.json")
	processed := filepath.Join(dir, "processed_data.csv")
	analyzed := filepath.Join(dir, "analyzed_reviews.csv")
	reports := filepath.Join(dir, "reports")
	require.NoError(t, os.WriteFile(raw, []byte(rawDump), 0o644))

	require.NoError(t, runPreprocess(raw, processed))

	f, err := os.Open(processed)
	require.NoError(t, err)
	reviews, err := ingest.ReadReviews(f)
	f.Close()
	require.NoError(t, err)
	assert.Len(t, reviews, 6, "duplicate and empty rows are dropped")

	ctx := context.Background()
	require.NoError(t, runAnalyze(ctx, testConfig(), processed, analyzed, false))

	f, err = os.Open(analyzed)
	require.NoError(t, err)
	out, err := ingest.ReadAnalyzed(f)
	f.Close()
	require.NoError(t, err)
	require.Len(t, out, 6)
	for i, r := range out {
		assert.Equal(t, reviews[i].Text, r.Text)
		assert.NotEmpty(t, r.Theme)
	}

	require.NoError(t, runInsights(ctx, testConfig(), insightsOptions{in: analyzed, outDir: reports}))
	md, err := os.ReadFile(filepath.Join(reports, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Total reviews analyzed: **6**")
	assert.FileExists(t, filepath.Join(reports, "report.html"))
}

func TestAnalyzeMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "analyzed.csv")

	err := runAnalyze(context.Background(), testConfig(), filepath.Join(dir, "missing.csv"), out, false)
	assert.ErrorIs(t, err, ingest.ErrNoInput)
	assert.NoFileExists(t, out)
}

func TestAnalyzeEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "processed.csv")
	out := filepath.Join(dir, "analyzed.csv")
	require.NoError(t, os.WriteFile(in, []byte("Review Text,Rating,Date,Bank/App Name,Source\n"), 0o644))

	err := runAnalyze(context.Background(), testConfig(), in, out, false)
	assert.ErrorIs(t, err, pipeline.ErrEmptyCorpus)
	assert.NoFileExists(t, out)
}

func TestPreprocessNothingKept(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw.json")
	out := filepath.Join(dir, "processed.csv")
	require.NoError(t, os.WriteFile(raw, []byte(`[{"content": "  ", "at": "2024-05-01T00:00:00"}]`), 0o644))

	assert.ErrorIs(t, runPreprocess(raw, out), errNothingKept)
	assert.NoFileExists(t, out)
}

func TestLoadRequiresCredentials(t *testing.T) {
	err := runLoad(context.Background(), config.Default(), loadOptions{in: "unused.csv"})
	assert.ErrorIs(t, err, errNoCredentials)
}
