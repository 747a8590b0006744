package rtapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/revivatech/client-go/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key-value cache backend.
// A shared bucket lets several client processes reuse each other's
// cached reads.
type NATSKVConfig struct {
	// Servers lists NATS server URLs.
	Servers []string

	// Bucket is the key-value bucket name. Created if missing.
	Bucket string

	// CredsFile is an optional NATS credentials file.
	CredsFile string

	// Username and Password are optional connection credentials.
	Username string
	Password string

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration

	// BucketTTL is an optional server side age limit for the bucket.
	// Entry level TTLs still apply on read.
	BucketTTL time.Duration
}

// NATSKVCache stores cache entries in a NATS JetStream key-value
// bucket. Signatures are base64 encoded because NATS restricts the key
// character set; the encoding is reversible so Keys can report the
// original signatures.
type NATSKVCache struct {
	conn   *nats.Conn
	kv     nats.KeyValue
	bucket string
}

// NewNATSKVCache connects to NATS and binds the configured bucket,
// creating it when it does not exist yet.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil || config.Bucket == "" {
		return nil, ErrNATSConfigRequired
	}

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = constants.ShortHTTPTimeout
	}

	opts := []nats.Option{
		nats.Name("revivatech-client-cache"),
		nats.Timeout(timeout),
	}

	if config.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(config.CredsFile))
	}

	if config.Username != "" {
		opts = append(opts, nats.UserInfo(config.Username, config.Password))
	}

	servers := strings.Join(config.Servers, ",")
	if servers == "" {
		servers = nats.DefaultURL
	}

	conn, err := nats.Connect(servers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	kv, err := js.KeyValue(config.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: config.Bucket,
			TTL:    config.BucketTTL,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to bind KV bucket %q: %w", config.Bucket, err)
	}

	return &NATSKVCache{
		conn:   conn,
		kv:     kv,
		bucket: config.Bucket,
	}, nil
}

// Get returns the entry for the key. Expired entries are purged and
// reported as a miss.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(encodeCacheKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
		}

		return nil, fmt.Errorf("failed to read KV entry: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode KV entry: %w", err)
	}

	if entry.Expired() {
		_ = c.kv.Purge(encodeCacheKey(key))

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return &entry, nil
}

// Set stores an entry under the key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode KV entry: %w", err)
	}

	_, err = c.kv.Put(encodeCacheKey(key), data)
	if err != nil {
		return fmt.Errorf("failed to write KV entry: %w", err)
	}

	return nil
}

// Delete removes a single entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Purge(encodeCacheKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete KV entry: %w", err)
	}

	return nil
}

// Clear removes all entries in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("failed to list KV keys: %w", err)
	}

	for _, key := range keys {
		_ = c.kv.Purge(key)
	}

	return nil
}

// Has reports whether an unexpired entry exists for the key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Keys lists the original signatures currently stored in the bucket.
func (c *NATSKVCache) Keys(ctx context.Context) ([]string, error) {
	encoded, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list KV keys: %w", err)
	}

	keys := make([]string, 0, len(encoded))

	for _, enc := range encoded {
		decoded, decErr := base64.RawURLEncoding.DecodeString(enc)
		if decErr != nil {
			continue
		}

		keys = append(keys, string(decoded))
	}

	return keys, nil
}

// Close drains the NATS connection.
func (c *NATSKVCache) Close() error {
	err := c.conn.Drain()
	if err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}

	return nil
}

// encodeCacheKey maps an arbitrary signature onto the restricted NATS
// key character set.
func encodeCacheKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
