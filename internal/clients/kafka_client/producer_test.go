package kafka_client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/reviewlens/internal/models"
)

func TestAnalyzedMessage(t *testing.T) {
	review := models.AnalyzedReview{
		Review: models.Review{
			Text:   "App crashes on login",
			Rating: 1,
			Date:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Bank:   "Dashen Bank",
			Source: "Google Play Store",
		},
		SentimentResult: models.SentimentResult{Compound: -0.4, Label: models.Negative},
		Theme:           "App Crashes Login",
	}

	msg, err := AnalyzedMessage(KAFKA_TOPIC_ANALYZED_REVIEWS, review)
	require.NoError(t, err)

	assert.Equal(t, KAFKA_TOPIC_ANALYZED_REVIEWS, *msg.TopicPartition.Topic)
	assert.Equal(t, review.Key(), string(msg.Key))

	var decoded models.AnalyzedReview
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, review, decoded)
}

func TestAnalyzedMessageKeyIsStable(t *testing.T) {
	review := models.AnalyzedReview{Review: models.Review{Text: "same", Bank: "B"}}

	first, err := AnalyzedMessage("t", review)
	require.NoError(t, err)
	review.Theme = "changed"
	second, err := AnalyzedMessage("t", review)
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
}

func TestDecodeAnalyzed(t *testing.T) {
	review := models.AnalyzedReview{
		Review:          models.Review{Text: "Fees are too high", Rating: 2, Bank: "Dashen Bank"},
		SentimentResult: models.SentimentResult{Compound: -0.2, Label: models.Negative},
		Theme:           "Fees High Hidden",
	}
	msg, err := AnalyzedMessage(KAFKA_TOPIC_ANALYZED_REVIEWS, review)
	require.NoError(t, err)

	decoded, err := DecodeAnalyzed(msg)
	require.NoError(t, err)
	assert.Equal(t, review, decoded)
}

func TestDecodeAnalyzedRejectsGarbage(t *testing.T) {
	_, err := DecodeAnalyzed(&kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = DecodeAnalyzed(&kafka.Message{Value: []byte(`{"review_text": "x", "sentiment": "Meh"}`)})
	assert.Error(t, err)
}
