package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/reviewlens/config"
)

// ValkeyClient remembers which reviews were already written to PostgreSQL
// so repeated loads of the same file do not duplicate rows.
type ValkeyClient struct {
	Client valkey.Client
	cfg    config.Valkey
	mu     sync.Mutex
}

func NewValkeyClient(cfg config.Valkey) (*ValkeyClient, error) {
	client, err := connectValkey(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey")
	return &ValkeyClient{Client: client, cfg: cfg}, nil
}

func connectValkey(cfg config.Valkey) (valkey.Client, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if cfg.TLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	return client, nil
}

func (vc *ValkeyClient) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey(vc.cfg)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}

	vc.Client.Close()
	vc.Client = client
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

func (vc *ValkeyClient) Close() {
	if vc != nil && vc.Client != nil {
		vc.Client.Close()
	}
}

// MarkLoaded records review keys as persisted.
func (vc *ValkeyClient) MarkLoaded(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	res := vc.DoWithRetry(ctx, vc.Client.B().Sadd().Key(VALKEY_LOADED_KEY).Member(keys...).Build(), MAX_RETRIES)
	if err := res.Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] failed to mark reviews as loaded: %w", err)
	}

	slog.Info("[ValkeyClient] Marked reviews as loaded", slog.Int("count", len(keys)))
	return nil
}

// LoadedKeys reports, for each key, whether it was marked before. A lookup
// failure reports false so the row is loaded rather than lost.
func (vc *ValkeyClient) LoadedKeys(ctx context.Context, keys []string) []bool {
	loaded := make([]bool, len(keys))
	if len(keys) == 0 {
		return loaded
	}

	res := vc.DoWithRetry(ctx, vc.Client.B().Smismember().Key(VALKEY_LOADED_KEY).Member(keys...).Build(), MAX_RETRIES)
	if err := res.Error(); err != nil {
		if isConnectionError(err) {
			vc.recreateClient()
		}
		slog.Warn("[ValkeyClient] Lookup failed, treating reviews as new",
			slog.String("error", err.Error()))
		return loaded
	}

	flags, err := res.ToArray()
	if err != nil {
		return loaded
	}
	for i, f := range flags {
		if i >= len(loaded) {
			break
		}
		n, err := f.AsInt64()
		loaded[i] = err == nil && n == 1
	}
	return loaded
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		vc.mu.Lock()
		client := vc.Client
		vc.mu.Unlock()

		result = client.Do(ctx, completed)
		if result.Error() == nil {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		time.Sleep(RETRY_BACKOFF)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
