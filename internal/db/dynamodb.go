package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/reviewlens/internal/models"
	"github.com/spacesedan/reviewlens/internal/utils"
)

const (
	DYNAMODB_BATCH_SIZE  = 25
	DYNAMODB_MAX_RETRIES = 3
)

// BatchWriter is the part of *dynamodb.Client used to store summaries.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type summaryItem struct {
	models.BankSummary
	CriticalTheme string `dynamodbav:"critical_theme"`
	GeneratedAt   int64  `dynamodbav:"generated_at"`
}

// SummaryStore keeps the latest theme summary per bank, keyed by bank name.
type SummaryStore struct {
	client  BatchWriter
	table   string
	backoff time.Duration
}

func NewSummaryStore(client BatchWriter, table string) *SummaryStore {
	return &SummaryStore{client: client, table: table, backoff: 500 * time.Millisecond}
}

func (s *SummaryStore) StoreBankSummaries(ctx context.Context, summaries []models.BankSummary) error {
	now := time.Now().Unix()

	for _, batch := range utils.Batches(summaries, DYNAMODB_BATCH_SIZE) {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		writeRequests := make([]types.WriteRequest, 0, len(batch))
		for _, summary := range batch {
			item, err := attributevalue.MarshalMap(summaryItem{
				BankSummary:   summary,
				CriticalTheme: summary.CriticalTheme(),
				GeneratedAt:   now,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] failed to marshal summary for %q: %w", summary.Bank, err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeBatch(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored bank summaries",
		slog.String("table", s.table),
		slog.Int("count", len(summaries)))
	return nil
}

func (s *SummaryStore) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: requests},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] failed to batch write summaries: %w", err)
	}

	backoff := s.backoff
	for retry := 0; len(out.UnprocessedItems) > 0 && retry < DYNAMODB_MAX_RETRIES; retry++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed items...",
			slog.Int("retry_attempt", retry+1),
			slog.Int("remaining_items", len(out.UnprocessedItems[s.table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] failed to retry batch write: %w", err)
		}
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d summaries were not written after %d retries", remaining, DYNAMODB_MAX_RETRIES)
	}
	return nil
}
