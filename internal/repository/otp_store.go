package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

var (
	ErrOTPStoreUnavailable = errors.New("otp store unavailable")
	ErrOTPStoreContention  = errors.New("otp store contention")
)

// OTPAction tells a store what to do with the record after evaluation.
type OTPAction int

const (
	OTPKeep OTPAction = iota
	OTPSave
	OTPDelete
)

// OTPEvaluator inspects the current record (nil when absent) and may mutate it.
type OTPEvaluator func(rec *domain.OTPRecord) OTPAction

// OTPStore keeps at most one pending code per normalized email. Evaluate runs
// the read, the evaluator and the resulting write as one atomic step per key.
type OTPStore interface {
	Save(ctx context.Context, rec *domain.OTPRecord) error
	Evaluate(ctx context.Context, email string, fn OTPEvaluator) (*domain.OTPRecord, error)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneOTP(rec *domain.OTPRecord) *domain.OTPRecord {
	if rec == nil {
		return nil
	}
	c := *rec
	return &c
}
