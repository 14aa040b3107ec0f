package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "egpt:transcript:"

// RedisStore implements TranscriptStore with one Redis list per transcript.
// Keys expire ttl after the last write, matching the session lifetime.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new RedisStore. A zero ttl disables expiration.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func metaKey(id string) string {
	return redisKeyPrefix + id + ":meta"
}

func messagesKey(id string) string {
	return redisKeyPrefix + id + ":messages"
}

// Create creates a new, empty transcript
func (s *RedisStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, metaKey(id), time.Now().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("could not create transcript: %w", err)
	}
	return id, nil
}

// Load returns the transcript's messages and refreshes its expiration
func (s *RedisStore) Load(ctx context.Context, id string) ([]Message, error) {
	if err := s.Touch(ctx, id); err != nil {
		return nil, err
	}

	raw, err := s.client.LRange(ctx, messagesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("could not read transcript %s: %w", id, err)
	}

	msgs := make([]Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("could not decode message in transcript %s: %w", id, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Append adds msgs to the end of a transcript and refreshes its expiration
func (s *RedisStore) Append(ctx context.Context, id string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	n, err := s.client.Exists(ctx, metaKey(id)).Result()
	if err != nil {
		return fmt.Errorf("could not check transcript %s: %w", id, err)
	}
	if n == 0 {
		return ErrTranscriptNotFound
	}

	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("could not encode message %s: %w", m.ID, err)
		}
		values = append(values, data)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, messagesKey(id), values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, messagesKey(id), s.ttl)
			pipe.Expire(ctx, metaKey(id), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not append to transcript %s: %w", id, err)
	}
	return nil
}

// Touch refreshes the transcript's expiration
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	if s.ttl <= 0 {
		n, err := s.client.Exists(ctx, metaKey(id)).Result()
		if err != nil {
			return fmt.Errorf("could not check transcript %s: %w", id, err)
		}
		if n == 0 {
			return ErrTranscriptNotFound
		}
		return nil
	}

	var meta *redis.BoolCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		meta = pipe.Expire(ctx, metaKey(id), s.ttl)
		pipe.Expire(ctx, messagesKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not refresh transcript %s: %w", id, err)
	}
	// Expire reports false for a missing key
	if !meta.Val() {
		return ErrTranscriptNotFound
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
