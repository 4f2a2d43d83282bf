package repository

import (
	"context"
	"sync"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

type InMemoryOTPStore struct {
	mu      sync.Mutex
	records map[string]*domain.OTPRecord
}

func NewInMemoryOTPStore() *InMemoryOTPStore {
	return &InMemoryOTPStore{records: map[string]*domain.OTPRecord{}}
}

func (s *InMemoryOTPStore) Save(_ context.Context, rec *domain.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneOTP(rec)
	c.Email = NormalizeEmail(c.Email)
	s.records[c.Email] = c
	return nil
}

func (s *InMemoryOTPStore) Evaluate(_ context.Context, email string, fn OTPEvaluator) (*domain.OTPRecord, error) {
	key := NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := cloneOTP(s.records[key])
	switch fn(rec) {
	case OTPSave:
		if rec != nil {
			s.records[key] = cloneOTP(rec)
		}
	case OTPDelete:
		delete(s.records, key)
	}
	return rec, nil
}
