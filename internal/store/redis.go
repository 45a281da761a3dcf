// redis.go -- go-redis record store.
//
// Each application is a hash at "application:<nickname>" with the fields
// nickname, verified ("0"/"1") and bungieUsername. The key doubles as the record id.
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// applicationKeyPrefix namespaces application hashes.
const applicationKeyPrefix = "application:"

// NewRedisClient parses redisURL, connects, and pings before returning.
// Call once at startup from main.go...the client is safe for concurrent use.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// RedisStore implements RecordStore on Redis hashes.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client. The caller owns rdb and closes it.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func applicationKey(nickname string) string {
	return applicationKeyPrefix + nickname
}

// CheckHealth pings Redis.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// CreateApplication stores an unverified application for nickname and returns its key.
func (s *RedisStore) CreateApplication(ctx context.Context, nickname string) (string, error) {
	key := applicationKey(nickname)
	if err := s.rdb.HSet(ctx, key,
		FieldNickname, nickname,
		FieldVerified, "0",
	).Err(); err != nil {
		return "", fmt.Errorf("creating application: %w", err)
	}
	return key, nil
}

// FindByNickname reads the hash for nickname. Keys are case-sensitive.
func (s *RedisStore) FindByNickname(ctx context.Context, nickname string) (*Record, error) {
	key := applicationKey(nickname)
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("fetching application: %w", err)
	}
	// HGETALL on a missing key is an empty map, not redis.Nil.
	if len(fields) == 0 {
		return nil, ErrRecordNotFound
	}
	return &Record{
		ID:             key,
		Nickname:       fields[FieldNickname],
		Verified:       fields[FieldVerified] == "1",
		BungieUsername: fields[FieldBungieUsername],
	}, nil
}

// markVerifiedScript updates the hash only if it still exists, so a record
// deleted between find and update is not resurrected with partial fields.
// KEYS[1] = record key, ARGV[1] = identity. Returns 1 if updated, 0 if missing.
var markVerifiedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
    return 0
end
redis.call('HSET', KEYS[1], 'verified', '1', 'bungieUsername', ARGV[1])
return 1
`)

// MarkVerified sets verified and stores identity on the hash at id.
func (s *RedisStore) MarkVerified(ctx context.Context, id, identity string) error {
	n, err := markVerifiedScript.Run(ctx, s.rdb, []string{id}, identity).Int()
	if err != nil {
		return fmt.Errorf("marking application verified: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
