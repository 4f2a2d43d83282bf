package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

var otpBucket = []byte("otp_codes")

// BoltOTPStore persists records in a single-file bbolt database. Each
// evaluation is one write transaction, which bbolt serializes.
type BoltOTPStore struct {
	db *bbolt.DB
}

func NewBoltOTPStore(db *bbolt.DB) (*BoltOTPStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(otpBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create otp bucket: %w", err)
	}
	return &BoltOTPStore{db: db}, nil
}

func (s *BoltOTPStore) Save(_ context.Context, rec *domain.OTPRecord) error {
	c := cloneOTP(rec)
	c.Email = NormalizeEmail(c.Email)
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(otpBucket).Put([]byte(c.Email), data)
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
	}
	return nil
}

func (s *BoltOTPStore) Evaluate(_ context.Context, email string, fn OTPEvaluator) (*domain.OTPRecord, error) {
	key := []byte(NormalizeEmail(email))
	var out *domain.OTPRecord
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(otpBucket)
		var rec *domain.OTPRecord
		if data := b.Get(key); data != nil {
			rec = &domain.OTPRecord{}
			if err := json.Unmarshal(data, rec); err != nil {
				return fmt.Errorf("decode otp record: %w", err)
			}
		}
		action := fn(rec)
		out = cloneOTP(rec)
		switch {
		case action == OTPDelete:
			return b.Delete(key)
		case action == OTPSave && rec != nil:
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			return b.Put(key, data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPStoreUnavailable, err)
	}
	return out, nil
}
