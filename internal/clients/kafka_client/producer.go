package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/models"
	"github.com/spacesedan/reviewlens/internal/utils"
)

// Producer publishes analyzed reviews. Each batch goes out in its own
// transaction so consumers never see half a batch.
type Producer struct {
	producer *kafka.Producer
}

func NewProducer(ctx context.Context, cfg config.Kafka) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      TRANSACTIONAL_ID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &Producer{producer: p}, nil
}

func (p *Producer) Close() {
	if p == nil || p.producer == nil {
		return
	}
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// PublishAnalyzed sends every review to topic, keyed by the review key so
// reruns of the same review land on the same partition.
func (p *Producer) PublishAnalyzed(ctx context.Context, topic string, reviews []models.AnalyzedReview) error {
	for _, batch := range utils.Batches(reviews, BATCH_SIZE) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.publishBatch(ctx, topic, batch); err != nil {
			return err
		}
	}

	slog.Info("[KafkaClient] Published analyzed reviews transactionally",
		slog.String("topic", topic),
		slog.Int("count", len(reviews)))
	return nil
}

func (p *Producer) publishBatch(ctx context.Context, topic string, batch []models.AnalyzedReview) error {
	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	for _, review := range batch {
		msg, err := AnalyzedMessage(topic, review)
		if err == nil {
			err = p.produce(msg)
		}
		if err != nil {
			if abortErr := p.producer.AbortTransaction(ctx); abortErr != nil {
				return fmt.Errorf("[KafkaClient] failed to abort transaction: %w", abortErr)
			}
			return err
		}
	}

	var commitErr error
	for i := 0; i < MAX_RETRIES; i++ {
		commitErr = p.producer.CommitTransaction(ctx)
		if commitErr == nil {
			return nil
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", commitErr.Error()))
	}
	return fmt.Errorf("[KafkaClient] failed to commit transaction after %d retries: %w", MAX_RETRIES, commitErr)
}

func (p *Producer) produce(msg *kafka.Message) error {
	var err error
	for i := 0; i < MAX_RETRIES; i++ {
		err = p.producer.Produce(msg, nil)
		if err == nil {
			return nil
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1))
	}
	return fmt.Errorf("[KafkaClient] failed to produce message: %w", err)
}

// AnalyzedMessage encodes one review as a JSON message for topic.
func AnalyzedMessage(topic string, review models.AnalyzedReview) (*kafka.Message, error) {
	value, err := json.Marshal(review)
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] failed to marshal review: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(review.Key()),
		Value:          value,
	}, nil
}
