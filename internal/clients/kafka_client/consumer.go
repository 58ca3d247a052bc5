package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/models"
)

// BatchHandler receives decoded reviews. Offsets are committed only after
// it returns nil.
type BatchHandler func(ctx context.Context, reviews []models.AnalyzedReview) error

// Consumer reads committed analyzed reviews from the topic.
type Consumer struct {
	consumer *kafka.Consumer
}

func NewConsumer(cfg config.Kafka) (*Consumer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Consumer...",
		slog.String("broker", cfg.Broker),
		slog.String("group_id", cfg.GroupID),
		slog.String("topic", cfg.Topic))

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Broker,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create consumer: %w", err)
	}

	if err := c.SubscribeTopics([]string{cfg.Topic}, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to subscribe to topics: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Consumer initialized successfully")
	return &Consumer{consumer: c}, nil
}

func (c *Consumer) Close() {
	if c == nil || c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		slog.Warn("[KafkaClient] Failed to close consumer", slog.String("error", err.Error()))
	}
}

// ConsumeAnalyzed hands reviews to handle in batches of up to BATCH_SIZE.
// A partial batch is flushed once no message arrived for BATCH_TIMEOUT.
// Without follow it returns after the first idle period with nothing
// pending, which drains the topic; with follow it runs until ctx ends.
func (c *Consumer) ConsumeAnalyzed(ctx context.Context, follow bool, handle BatchHandler) error {
	batch := make([]models.AnalyzedReview, 0, BATCH_SIZE)
	failures := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := handle(ctx, batch); err != nil {
			return err
		}
		if err := c.commit(ctx); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			slog.Warn("[KafkaIterator] Context cancelled, stopping iterator")
			return err
		}

		msg, err := c.consumer.ReadMessage(BATCH_TIMEOUT)
		if err != nil {
			var kafkaErr kafka.Error
			if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrTimedOut {
				failures = 0
				if len(batch) == 0 && !follow {
					slog.Info("[KafkaIterator] Topic drained")
					return nil
				}
				if err := flush(); err != nil {
					return err
				}
				continue
			}
			if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrAllBrokersDown {
				slog.Error("[KafkaIterator] All Kafka brokers are down. Aborting")
				return err
			}

			failures++
			slog.Warn("[KafkaIterator] Failed to read message, retrying...",
				slog.Int("attempt", failures),
				slog.Int("max_retries", MAX_RETRIES),
				slog.String("error", err.Error()))
			if failures >= MAX_RETRIES {
				return fmt.Errorf("[KafkaIterator] failed to read message after %d retries: %w", MAX_RETRIES, err)
			}
			time.Sleep(RETRY_DELAY)
			continue
		}
		failures = 0

		review, err := DecodeAnalyzed(msg)
		if err != nil {
			slog.Warn("[KafkaIterator] Skipping undecodable message",
				slog.String("error", err.Error()),
				slog.String("offset", msg.TopicPartition.Offset.String()))
			continue
		}

		batch = append(batch, review)
		if len(batch) >= BATCH_SIZE {
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

func (c *Consumer) commit(ctx context.Context) error {
	var err error
	for i := 0; i < MAX_RETRIES; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			slog.Warn("[KafkaCommitHandler] Context canceled, stopping commit")
			return ctxErr
		}

		var offsets []kafka.TopicPartition
		offsets, err = c.consumer.Commit()
		if err == nil {
			slog.Debug("[KafkaCommitHandler] Successfully committed offsets",
				slog.Int("partitions", len(offsets)))
			return nil
		}

		var kafkaErr kafka.Error
		if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrNoOffset {
			return nil
		}
		if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrAllBrokersDown {
			slog.Error("[KafkaCommitHandler] All Kafka brokers are down. Aborting commit")
			return err
		}

		slog.Warn("[KafkaCommitHandler] Failed to commit offset, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(RETRY_DELAY)
	}
	return fmt.Errorf("[KafkaCommitHandler] failed to commit offsets after %d retries: %w", MAX_RETRIES, err)
}

// DecodeAnalyzed parses a message written by PublishAnalyzed.
func DecodeAnalyzed(msg *kafka.Message) (models.AnalyzedReview, error) {
	var review models.AnalyzedReview
	if err := json.Unmarshal(msg.Value, &review); err != nil {
		return review, fmt.Errorf("[KafkaClient] failed to unmarshal review: %w", err)
	}
	if !review.Label.Valid() {
		return review, fmt.Errorf("[KafkaClient] invalid sentiment %q", review.Label)
	}
	return review, nil
}
