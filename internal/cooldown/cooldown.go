// Package cooldown wraps the external key/value cache used to express a
// per-domain "muted until" interval. The live implementation talks to Redis;
// a fake in-memory stand-in (fake.go) implements the same Store interface
// for tests that should not require a running Redis instance.
package cooldown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crawlbroker.dev/internal/chk"
	"crawlbroker.dev/internal/log"
)

// ErrStoreUnavailable is returned (wrapped) when the cache connection is
// unusable. The dispatch loop treats it as transient: log and retry on the
// next signal, per the broker's StoreUnavailable error policy.
var ErrStoreUnavailable = errors.New("cooldown store unavailable")

// Store is the interface the dispatch loop depends on, so tests can swap in
// Fake instead of a live Redis connection.
type Store interface {
	// MutedDomains returns the subset of domains that currently have a live
	// cooldown key, via a single batched multi-get.
	MutedDomains(ctx context.Context, domains []string) (map[string]bool, error)
	// Mute sets the cooldown key for domain with the configured TTL,
	// atomically (pipelined set+expire in one round trip).
	Mute(ctx context.Context, domain string) error
}

// Client is the Redis-backed Store implementation.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// keyPrefix namespaces every cooldown key so the store can be shared safely
// with other services, per the broker's data model (§3).
const keyPrefix = "cooldown:"

func key(domain string) string { return keyPrefix + domain }

// New dials uri (a standard redis:// or rediss:// connection string) and
// returns a Client using ttl as the cooldown duration.
func New(uri string, ttl time.Duration) (c *Client, err error) {
	var opts *redis.Options
	if opts, err = redis.ParseURL(uri); chk.E(err) {
		return
	}
	return &Client{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// MutedDomains implements Store via a single MGET over cooldown:<domain>
// keys.
func (c *Client) MutedDomains(
	ctx context.Context, domains []string,
) (muted map[string]bool, err error) {
	muted = make(map[string]bool, len(domains))
	if len(domains) == 0 {
		return muted, nil
	}
	keys := make([]string, len(domains))
	for i, d := range domains {
		keys[i] = key(d)
	}
	var vals []any
	if vals, err = c.rdb.MGet(ctx, keys...).Result(); err != nil {
		log.E.F("cooldown mget: %s", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	for i, v := range vals {
		if v != nil {
			muted[domains[i]] = true
		}
	}
	return muted, nil
}

// Mute implements Store via a pipelined Set+Expire, mirroring the original
// implementation's atomic redis pipe.
func (c *Client) Mute(ctx context.Context, domain string) (err error) {
	k := key(domain)
	_, err = c.rdb.TxPipelined(
		ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, 1, 0)
			pipe.Expire(ctx, k, c.ttl)
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
