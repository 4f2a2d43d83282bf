package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

const otpRedisMaxRetries = 4

// RedisOTPStore keeps each record as a hash that expires with the code.
type RedisOTPStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisOTPStore(client redis.UniversalClient, prefix string) *RedisOTPStore {
	if prefix == "" {
		prefix = "campus"
	}
	return &RedisOTPStore{client: client, prefix: prefix + ":otp:", now: time.Now}
}

func (s *RedisOTPStore) key(email string) string {
	return s.prefix + NormalizeEmail(email)
}

func (s *RedisOTPStore) Save(ctx context.Context, rec *domain.OTPRecord) error {
	key := s.key(rec.Email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.write(ctx, pipe, key, rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
	}
	return nil
}

func (s *RedisOTPStore) Evaluate(ctx context.Context, email string, fn OTPEvaluator) (*domain.OTPRecord, error) {
	key := s.key(email)
	for i := 0; i < otpRedisMaxRetries; i++ {
		var out *domain.OTPRecord
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			fields, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}
			rec, err := decodeOTPHash(fields)
			if err != nil {
				return err
			}
			action := fn(rec)
			out = cloneOTP(rec)
			if action == OTPKeep || (action == OTPSave && rec == nil) {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if action == OTPDelete {
					pipe.Del(ctx, key)
					return nil
				}
				s.write(ctx, pipe, key, rec)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
		}
		return out, nil
	}
	return nil, ErrOTPStoreContention
}

// write keeps the key alive a little past expiry so the expired branch still
// sees the record and removes it explicitly.
func (s *RedisOTPStore) write(ctx context.Context, pipe redis.Pipeliner, key string, rec *domain.OTPRecord) {
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"email", NormalizeEmail(rec.Email),
		"issue_id", rec.IssueID,
		"code", rec.Code,
		"username", rec.Username,
		"expires_at", rec.ExpiresAt.UnixMilli(),
		"attempts", rec.Attempts,
	)
	ttl := rec.ExpiresAt.Sub(s.now()) + time.Minute
	if ttl < time.Minute {
		ttl = time.Minute
	}
	pipe.PExpire(ctx, key, ttl)
}

func decodeOTPHash(fields map[string]string) (*domain.OTPRecord, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	expiresMs, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode otp expires_at: %w", err)
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("decode otp attempts: %w", err)
	}
	return &domain.OTPRecord{
		Email:     fields["email"],
		IssueID:   fields["issue_id"],
		Code:      fields["code"],
		Username:  fields["username"],
		ExpiresAt: time.UnixMilli(expiresMs),
		Attempts:  attempts,
	}, nil
}
