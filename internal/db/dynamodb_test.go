package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewlens/internal/models"
)

// fakeDynamo records every call and leaves the first `unprocessed` items of
// each call unwritten until it runs out of failures.
type fakeDynamo struct {
	calls       []int
	items       []map[string]types.AttributeValue
	unprocessed int
	failures    int
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	out := &dynamodb.BatchWriteItemOutput{}
	for table, reqs := range in.RequestItems {
		f.calls = append(f.calls, len(reqs))
		keep := reqs
		if f.failures > 0 && f.unprocessed > 0 && f.unprocessed <= len(reqs) {
			f.failures--
			keep = reqs[f.unprocessed:]
			out.UnprocessedItems = map[string][]types.WriteRequest{table: reqs[:f.unprocessed]}
		}
		for _, r := range keep {
			f.items = append(f.items, r.PutRequest.Item)
		}
	}
	return out, nil
}

func summaries(n int) []models.BankSummary {
	out := make([]models.BankSummary, n)
	for i := range out {
		out[i] = models.BankSummary{
			Bank:      fmt.Sprintf("bank-%02d", i),
			Reviews:   10,
			AvgRating: 3.5,
			SentimentPercent: map[models.Sentiment]float64{
				models.Positive: 50, models.Neutral: 20, models.Negative: 30,
			},
			NegativeThemes: []models.ThemeStat{{Theme: "Login Otp Code", Count: 3, Percent: 100}},
		}
	}
	return out
}

func TestStoreBankSummariesChunks(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewSummaryStore(fake, "BankThemeSummaries")

	require.NoError(t, store.StoreBankSummaries(context.Background(), summaries(30)))
	assert.Equal(t, []int{25, 5}, fake.calls)
	assert.Len(t, fake.items, 30)

	var item summaryItem
	require.NoError(t, attributevalue.UnmarshalMap(fake.items[0], &item))
	assert.Equal(t, "bank-00", item.Bank)
	assert.Equal(t, "Login Otp Code", item.CriticalTheme)
	assert.InDelta(t, 30.0, item.SentimentPercent[models.Negative], 1e-9)
	assert.NotZero(t, item.GeneratedAt)
}

func TestStoreBankSummariesRetriesUnprocessed(t *testing.T) {
	fake := &fakeDynamo{unprocessed: 2, failures: 1}
	store := NewSummaryStore(fake, "BankThemeSummaries")
	store.backoff = time.Millisecond

	require.NoError(t, store.StoreBankSummaries(context.Background(), summaries(5)))
	assert.Equal(t, []int{5, 2}, fake.calls)
	assert.Len(t, fake.items, 5)
}

func TestStoreBankSummariesGivesUp(t *testing.T) {
	fake := &fakeDynamo{unprocessed: 1, failures: 100}
	store := NewSummaryStore(fake, "BankThemeSummaries")
	store.backoff = time.Millisecond

	err := store.StoreBankSummaries(context.Background(), summaries(3))
	assert.Error(t, err)
	assert.Len(t, fake.calls, 1+DYNAMODB_MAX_RETRIES)
}
