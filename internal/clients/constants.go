package clients

import "time"

const (
	MAX_RETRIES       = 3
	RETRY_BACKOFF     = 250 * time.Millisecond
	VALKEY_LOADED_KEY = "reviewlens:loaded_reviews"
)
