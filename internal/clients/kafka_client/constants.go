package kafka_client

import "time"

const (
	KAFKA_TOPIC_ANALYZED_REVIEWS = "analyzed-reviews" // one message per analyzed review
	TRANSACTIONAL_ID             = "reviewlens-producer-1"
)

const (
	BATCH_SIZE       = 50
	BATCH_TIMEOUT    = 5 * time.Second
	MAX_RETRIES      = 3
	RETRY_DELAY      = 2 * time.Second
	FLUSH_TIMEOUT_MS = 5000
)
