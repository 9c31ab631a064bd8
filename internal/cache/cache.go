// Package cache keeps each subject's latest status close at hand so the
// directory does not need a query per subject.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"vitalmine-server/internal/risk"
)

// KeyPrefix namespaces status keys.
const KeyPrefix = "vitalmine:status:"

// Status is the cached summary of a subject's newest reading.
type Status struct {
	ReadingID  string     `json:"readingId"`
	Label      risk.Label `json:"label"`
	Advice     string     `json:"advice"`
	RecordedAt time.Time  `json:"recordedAt"`
}

// StatusCache stores the latest Status per subject. Set keeps whichever of
// the stored and the offered status was recorded later.
type StatusCache interface {
	Set(ctx context.Context, subjectID string, s Status) error
	Get(ctx context.Context, subjectID string) (Status, bool, error)
}

// setRetries bounds optimistic retries when another writer touches the key.
const setRetries = 5

// supersedes reports whether s should replace cur.
func (s Status) supersedes(cur Status) bool {
	if s.RecordedAt.Equal(cur.RecordedAt) {
		return s.ReadingID >= cur.ReadingID
	}
	return s.RecordedAt.After(cur.RecordedAt)
}

// Key returns the redis key for subjectID.
func Key(subjectID string) string {
	return KeyPrefix + subjectID
}

// Redis is a StatusCache backed by plain redis string keys holding JSON.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis cache. A zero ttl keeps keys forever.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Set(ctx context.Context, subjectID string, s Status) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	key := Key(subjectID)
	update := func(tx *redis.Tx) error {
		cur, ok, err := decode(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		if ok && !s.supersedes(cur) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < setRetries; i++ {
		err = c.client.Watch(ctx, update, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("cache status for %s: %w", subjectID, err)
	}
	return nil
}

func (c *Redis) Get(ctx context.Context, subjectID string) (Status, bool, error) {
	s, ok, err := decode(c.client.Get(ctx, Key(subjectID)).Bytes())
	if err != nil {
		return Status{}, false, fmt.Errorf("read cached status for %s: %w", subjectID, err)
	}
	return s, ok, nil
}

func decode(data []byte, err error) (Status, bool, error) {
	if errors.Is(err, redis.Nil) {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, err
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, false, fmt.Errorf("decode cached status: %w", err)
	}
	return s, true, nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Set(context.Context, string, Status) error { return nil }

func (Noop) Get(context.Context, string) (Status, bool, error) { return Status{}, false, nil }

// Memory is an in-process StatusCache, used when redis is not configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Status
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Status)}
}

func (c *Memory) Set(_ context.Context, subjectID string, s Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[subjectID]; ok && !s.supersedes(cur) {
		return nil
	}
	c.entries[subjectID] = s
	return nil
}

func (c *Memory) Get(_ context.Context, subjectID string) (Status, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[subjectID]
	return s, ok, nil
}
