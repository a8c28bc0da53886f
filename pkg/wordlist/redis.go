package wordlist

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ReloadWords is published on the update channel when the word set changes.
const ReloadWords = "words"

// RedisStore keeps the banned word list in a Redis set and announces
// changes on a pub/sub channel.
type RedisStore struct {
	client  redis.UniversalClient
	key     string
	channel string
}

func NewRedisStore(client redis.UniversalClient, key, channel string) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     key,
		channel: channel,
	}
}

// Load returns every word of the set, sorted.
func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	words, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "smembers %s", s.key)
	}
	sort.Strings(words)
	return words, nil
}

// Add stores words and notifies subscribers.
func (s *RedisStore) Add(ctx context.Context, words ...string) error {
	if len(words) == 0 {
		return nil
	}
	if err := s.client.SAdd(ctx, s.key, toArgs(words)...).Err(); err != nil {
		return errors.Wrapf(err, "sadd %s", s.key)
	}
	return s.notify(ctx)
}

// Remove deletes words and notifies subscribers.
func (s *RedisStore) Remove(ctx context.Context, words ...string) error {
	if len(words) == 0 {
		return nil
	}
	if err := s.client.SRem(ctx, s.key, toArgs(words)...).Err(); err != nil {
		return errors.Wrapf(err, "srem %s", s.key)
	}
	return s.notify(ctx)
}

func (s *RedisStore) notify(ctx context.Context) error {
	if s.channel == "" {
		return nil
	}
	if err := s.client.Publish(ctx, s.channel, ReloadWords).Err(); err != nil {
		return errors.Wrapf(err, "publish %s", s.channel)
	}
	return nil
}

func toArgs(words []string) []interface{} {
	args := make([]interface{}, len(words))
	for i, w := range words {
		args[i] = w
	}
	return args
}
