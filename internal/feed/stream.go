package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultStream is the redis stream readings are appended to.
const DefaultStream = "vitalmine:readings"

// RedisStream appends events to a capped redis stream for downstream
// consumers.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStream creates a publisher on stream, trimmed to roughly maxLen
// entries when maxLen > 0.
func NewRedisStream(client *redis.Client, stream string, maxLen int64) *RedisStream {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}
}

// Values flattens e into stream fields.
func (s *RedisStream) Values(e Event) (map[string]interface{}, error) {
	data, err := json.Marshal(e.Reading)
	if err != nil {
		return nil, fmt.Errorf("encode reading: %w", err)
	}
	values := map[string]interface{}{
		"type":       e.Type,
		"subject_id": e.SubjectID,
		"data":       string(data),
		"timestamp":  e.Timestamp.UnixMilli(),
	}
	if e.Reading != nil {
		values["reading_id"] = e.Reading.ID
		values["label"] = string(e.Reading.RiskLabel)
	}
	return values, nil
}

func (s *RedisStream) Publish(ctx context.Context, e Event) error {
	values, err := s.Values(e)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: s.stream, Values: values}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
