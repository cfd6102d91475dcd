package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"vcdemo/internal/credential/models"
	"vcdemo/internal/sentinel"
)

const (
	redisKeyPrefix      = "vcdemo:credential:"
	redisIndexPrefix    = "vcdemo:credential-id:"
	redisOrderKey       = "vcdemo:credentials"
	redisSequenceKey    = "vcdemo:credentials:seq"
	redisRevokeAttempts = 3
	redisRevokeBackoff  = 10 * time.Millisecond
)

// RedisStore keeps each credential as a JSON string, the insertion order in a
// list, and the first id seen for each credentialId in an index key.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed credential store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(id int64) string {
	return redisKeyPrefix + strconv.FormatInt(id, 10)
}

func indexKey(credentialID string) string {
	return redisIndexPrefix + credentialID
}

func (s *RedisStore) Create(ctx context.Context, req models.IssueRequest) (*models.Credential, error) {
	id, err := s.client.Incr(ctx, redisSequenceKey).Result()
	if err != nil {
		return nil, fmt.Errorf("allocate credential id: %w", err)
	}

	cred := models.NewCredential(id, req)
	payload, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("marshal credential: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(id), payload, 0)
		pipe.RPush(ctx, redisOrderKey, id)
		// Keeps the earliest id so lookups match insertion order.
		pipe.SetNX(ctx, indexKey(cred.CredentialID), id, 0)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	return &cred, nil
}

func (s *RedisStore) FindByID(ctx context.Context, id int64) (*models.Credential, error) {
	raw, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return decodeCredential(raw)
}

func (s *RedisStore) FindByCredentialID(ctx context.Context, credentialID string) (*models.Credential, error) {
	id, err := s.resolve(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

func (s *RedisStore) resolve(ctx context.Context, credentialID string) (int64, error) {
	id, err := s.client.Get(ctx, indexKey(credentialID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("resolve credential id: %w", err)
	}
	return id, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*models.Credential, error) {
	ids, err := s.client.LRange(ctx, redisOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list credential ids: %w", err)
	}
	out := make([]*models.Credential, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("credential %s missing: %w", ids[i], sentinel.ErrCorrupt)
		}
		cred, err := decodeCredential([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, nil
}

// Revoke updates the record under WATCH and retries a bounded number of
// times when a concurrent writer touches the same key.
func (s *RedisStore) Revoke(ctx context.Context, credentialID, reason, date string) (*models.Credential, error) {
	id, err := s.resolve(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	key := recordKey(id)

	var revoked *models.Credential
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return sentinel.ErrNotFound
			}
			return err
		}
		cred, err := decodeCredential(raw)
		if err != nil {
			return err
		}
		cred.Revoke(date, reason)
		payload, err := json.Marshal(cred)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err == nil {
			revoked = cred
		}
		return err
	}

	// Only a lost WATCH race is retried; every other outcome is final.
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(redisRevokeBackoff), redisRevokeAttempts-1),
		ctx,
	)
	err = backoff.Retry(func() error {
		err := s.client.Watch(ctx, txf, key)
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	switch {
	case err == nil:
		return revoked, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, err
	case errors.Is(err, redis.TxFailedErr):
		return nil, fmt.Errorf("revoke credential: %w", sentinel.ErrUnavailable)
	default:
		return nil, fmt.Errorf("revoke credential: %w", err)
	}
}

func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodeCredential(raw []byte) (*models.Credential, error) {
	var cred models.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w: %w", sentinel.ErrCorrupt, err)
	}
	return &cred, nil
}
